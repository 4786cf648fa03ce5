package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	// LLM used for answer composition and multi-query expansion.
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMClient          *llm.Client

	// Embedding endpoint (OpenAI-compatible /embeddings).
	EmbedAPIBase string
	EmbedAPIKey  string
	EmbedModel   string

	// Speech-to-text endpoint (OpenAI-compatible /audio/transcriptions).
	WhisperAPIBase string
	WhisperAPIKey  string
	WhisperModel   string

	// Transcript resolution.
	TranscriptLangs []string // preferred caption languages, in order
	FetchTimeout    time.Duration
	GenerateTimeout time.Duration
	MaxAudioBytes   int64

	// Chunking and retrieval tuning.
	ChunkSize          int     // max characters per chunk
	ChunkOverlap       int     // trailing characters carried into the next chunk
	TopK               int     // default retrieval depth
	MinRelevance       float64 // minimum cosine similarity for usable context
	MultiQueryVariants int     // 0 disables LLM query expansion

	// Session memory.
	MemoryMaxTurns int

	// Batch ingestion.
	IngestConcurrency int     // bounded worker pool size
	ExternalRPS       float64 // rate limit across fetch/generate/embed calls

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, store).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
