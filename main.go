// go_tube — YouTube transcript RAG MCP server.
//
// Ingests YouTube videos, playlists and channels into a searchable transcript
// index (captions first, speech-to-text fallback) and answers questions over
// it with conversation memory. Exposes four MCP tools: ingest_url, ask,
// reset_memory, index_status.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/sources"
	"github.com/anatolykoptev/go_tube/internal/engine/store"
	"github.com/anatolykoptev/go_tube/internal/ragserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	ts := initEngine()
	defer ts.Close()

	slog.Info("starting go_tube",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_tube",
		Version: version,
	}, nil)

	ingestor := engine.NewIngestor(
		sources.ResolveVideoURLs,
		sources.FetchTranscript,
		sources.GenerateTranscript,
		ts,
	)
	ragserver.SetSession(engine.NewSession(ingestor, engine.NewRetriever(ts), ts))
	ragserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 4))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_tube",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() engine.TranscriptStore {
	c := engine.Config{
		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:           env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 8192),

		EmbedAPIBase: env.Str("EMBED_API_BASE", "https://api.openai.com/v1"),
		EmbedAPIKey:  env.Str("EMBED_API_KEY", ""),
		EmbedModel:   env.Str("EMBED_MODEL", "text-embedding-3-small"),

		WhisperAPIBase: env.Str("WHISPER_API_BASE", ""),
		WhisperAPIKey:  env.Str("WHISPER_API_KEY", ""),
		WhisperModel:   env.Str("WHISPER_MODEL", "whisper-1"),

		TranscriptLangs: env.List("TRANSCRIPT_LANGS", "en"),
		FetchTimeout:    env.Duration("FETCH_TIMEOUT", 60*time.Second),
		GenerateTimeout: env.Duration("GENERATE_TIMEOUT", 10*time.Minute),
		MaxAudioBytes:   int64(env.Int("MAX_AUDIO_BYTES", 50*1024*1024)),

		ChunkSize:          env.Int("CHUNK_SIZE", 1500),
		ChunkOverlap:       env.Int("CHUNK_OVERLAP", 300),
		TopK:               env.Int("TOP_K", 4),
		MinRelevance:       env.Float("MIN_RELEVANCE", 0.75),
		MultiQueryVariants: env.Int("MULTI_QUERY_VARIANTS", 3),

		MemoryMaxTurns: env.Int("MEMORY_MAX_TURNS", 20),

		IngestConcurrency: env.Int("INGEST_CONCURRENCY", 4),
		ExternalRPS:       env.Float("EXTERNAL_RPS", 2),

		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),

		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 1*time.Hour)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	return openStore()
}

// openStore picks the transcript store backend: Postgres when DATABASE_URL is
// set, a local SQLite file otherwise.
func openStore() engine.TranscriptStore {
	if databaseURL := env.Str("DATABASE_URL", ""); databaseURL != "" {
		ts, err := store.ConnectPostgres(context.Background(), databaseURL)
		if err != nil {
			slog.Error("postgres store init failed", slog.Any("error", err))
			os.Exit(1)
		}
		return ts
	}

	path := env.Str("SQLITE_PATH", "")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path = filepath.Join(home, ".go_tube", "transcripts.db")
	}
	ts, err := store.OpenSQLite(path)
	if err != nil {
		slog.Error("sqlite store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	return ts
}
