package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ResolveRequests    atomic.Int64
	TranscriptFetches  atomic.Int64
	TranscriptsFetched atomic.Int64
	TranscriptsWhisper atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	EmbedCalls         atomic.Int64
	EmbedErrors        atomic.Int64
	StoreInserts       atomic.Int64
	Searches           atomic.Int64
	Questions          atomic.Int64
	IngestFailures     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"resolve_requests":    metrics.ResolveRequests.Load(),
		"transcript_fetches":  metrics.TranscriptFetches.Load(),
		"transcripts_fetched": metrics.TranscriptsFetched.Load(),
		"transcripts_whisper": metrics.TranscriptsWhisper.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"embed_calls":         metrics.EmbedCalls.Load(),
		"embed_errors":        metrics.EmbedErrors.Load(),
		"store_inserts":       metrics.StoreInserts.Load(),
		"searches":            metrics.Searches.Load(),
		"questions":           metrics.Questions.Load(),
		"ingest_failures":     metrics.IngestFailures.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"resolve_requests",
		"transcript_fetches", "transcripts_fetched", "transcripts_whisper",
		"llm_calls", "llm_errors",
		"embed_calls", "embed_errors",
		"store_inserts", "searches", "questions", "ingest_failures",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sub-packages.
func IncrResolveRequests()    { metrics.ResolveRequests.Add(1) }
func IncrTranscriptFetches()  { metrics.TranscriptFetches.Add(1) }
func IncrTranscriptsFetched() { metrics.TranscriptsFetched.Add(1) }
func IncrTranscriptsWhisper() { metrics.TranscriptsWhisper.Add(1) }
func IncrEmbedCalls()         { metrics.EmbedCalls.Add(1) }
func IncrEmbedErrors()        { metrics.EmbedErrors.Add(1) }
func IncrStoreInserts()       { metrics.StoreInserts.Add(1) }
func IncrSearches()           { metrics.Searches.Add(1) }
func IncrQuestions()          { metrics.Questions.Add(1) }
func IncrIngestFailures()     { metrics.IngestFailures.Add(1) }
