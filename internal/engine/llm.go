package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// currentDate returns today's date in ISO 8601 format (UTC).
func currentDate() string {
	return time.Now().UTC().Format("2006-01-02")
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	metrics.LLMCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, "", prompt)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}

// ComposeAnswer builds the grounded-answer prompt from retrieved chunks and
// prior conversation turns, and calls the LLM. Chunks must already be filtered
// by the relevance threshold; callers handle the empty case themselves.
func ComposeAnswer(ctx context.Context, question string, chunks []ScoredChunk, turns []ConversationTurn) (string, error) {
	convo := ""
	if len(turns) > 0 {
		convo = fmt.Sprintf(conversationSection, renderTurns(turns))
	}
	prompt := fmt.Sprintf(answerPrompt, currentDate(), convo, question, renderChunks(chunks))

	raw, err := CallLLM(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// renderTurns formats memory turns oldest-first for the prompt.
func renderTurns(turns []ConversationTurn) string {
	var sb strings.Builder
	for _, t := range turns {
		label := "User"
		if t.Role == "agent" {
			label = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, t.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderChunks formats retrieved excerpts with video and timestamp provenance.
func renderChunks(chunks []ScoredChunk) string {
	var sb strings.Builder
	for i, sc := range chunks {
		c := sc.Chunk
		fmt.Fprintf(&sb, "\n[%d] video %s", i+1, c.VideoID)
		if c.EndSec > 0 {
			fmt.Fprintf(&sb, " (%s–%s)", FormatTimestamp(c.StartSec), FormatTimestamp(c.EndSec))
		}
		fmt.Fprintf(&sb, "\n%s\n", c.Text)
	}
	return sb.String()
}

// ExpandSearchQueries uses the LLM to generate semantically diverse variants
// of a retrieval question. The original question is not included in the output.
func ExpandSearchQueries(ctx context.Context, question string, n int) ([]string, error) {
	prompt := fmt.Sprintf(expandQueryPrompt, n, n, question)
	metrics.LLMCalls.Add(1)
	raw, err := cfg.LLMClient.Complete(ctx, "", prompt,
		llm.WithChatTemperature(0.7),
		llm.WithChatMaxTokens(250),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return nil, err
	}
	raw = stripFences(raw)
	var variants []string
	if err := json.Unmarshal([]byte(raw), &variants); err != nil {
		return nil, fmt.Errorf("expand: parse failed on %q: %w", raw, err)
	}
	if len(variants) > n {
		variants = variants[:n]
	}
	return variants, nil
}
