// Package ragserver exposes the transcript RAG engine as MCP tools:
// ingest_url, ask, reset_memory, index_status.
package ragserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var session *engine.Session

// SetSession injects the engine session the tools operate on. Must be called
// before RegisterTools.
func SetSession(s *engine.Session) {
	session = s
}

// RegisterTools registers all transcript RAG tools on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerIngestURL(server)
	registerAsk(server)
	registerResetMemory(server)
	registerIndexStatus(server)
}

func registerIngestURL(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_url",
		Description: "Index YouTube content for question answering. Accepts a video, playlist, or channel URL (bare or embedded in text). Fetches captions, falls back to speech-to-text for videos without them, and reports per-video outcomes (indexed, already_indexed, failed). Set force=true to purge and re-index videos that are already indexed.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.IngestInput) (*mcp.CallToolResult, engine.IngestReport, error) {
		if err := toolutil.RequireField(strings.TrimSpace(input.URL), "url"); err != nil {
			return nil, engine.IngestReport{}, err
		}

		report, err := session.Ingest(ctx, input.URL, input.Force)
		if err != nil {
			return nil, engine.IngestReport{}, toolutil.ToolErr(err)
		}
		slog.Info("ingest_url done",
			slog.Int("indexed", report.Indexed),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed))
		return nil, *report, nil
	})
}

func registerAsk(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed video transcripts. Uses the running conversation to resolve references to earlier questions, and cites the transcript chunks the answer draws on. Answers only from indexed content; returns a fixed refusal when nothing relevant is indexed.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.AskInput) (*mcp.CallToolResult, engine.AskOutput, error) {
		if err := toolutil.RequireField(strings.TrimSpace(input.Question), "question"); err != nil {
			return nil, engine.AskOutput{}, err
		}

		out, err := session.Ask(ctx, input.Question, input.TopK)
		if err != nil {
			return nil, engine.AskOutput{}, toolutil.ToolErr(err)
		}
		return nil, *out, nil
	})
}

func registerResetMemory(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_memory",
		Description: "Clear the conversation memory. Indexed transcripts are kept; only the question/answer history is dropped.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.ResetInput) (*mcp.CallToolResult, engine.ResetOutput, error) {
		session.Reset()
		slog.Info("conversation memory cleared")
		return nil, engine.ResetOutput{Cleared: true}, nil
	})
}

func registerIndexStatus(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report how many videos are indexed and how many conversation turns are retained.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input engine.StatusInput) (*mcp.CallToolResult, engine.StatusOutput, error) {
		status, err := session.Status(ctx)
		if err != nil {
			return nil, engine.StatusOutput{}, toolutil.ToolErr(err)
		}
		return nil, *status, nil
	})
}
