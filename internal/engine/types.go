package engine

import "time"

// VideoRef identifies one resolved video. Immutable once created.
type VideoRef struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
}

// Segment is one timed piece of spoken text as delivered by the fetcher or
// the speech-to-text engine.
type Segment struct {
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
	Text     string  `json:"text"`
}

// Transcript is the full spoken content of one video.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Source   string    `json:"source"` // "captions" or "whisper"
}

// TranscriptChunk is the unit of embedding and retrieval. ChunkIndex values
// are contiguous from 0 within a video.
type TranscriptChunk struct {
	VideoID    string    `json:"video_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
	StartSec   float64   `json:"start,omitempty"`
	EndSec     float64   `json:"end,omitempty"`
}

// ScoredChunk is one retrieval hit. Ephemeral, never persisted.
type ScoredChunk struct {
	Chunk TranscriptChunk `json:"chunk"`
	Score float64         `json:"score"`
}

// ConversationTurn is a single entry in the session memory.
type ConversationTurn struct {
	Role string    `json:"role"` // "user" or "agent"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// VideoStatus is the per-video outcome of a batch ingestion.
type VideoStatus string

const (
	StatusIndexed        VideoStatus = "indexed"
	StatusAlreadyIndexed VideoStatus = "already_indexed"
	StatusFailed         VideoStatus = "failed"
)

// VideoResult reports the outcome for one video in a batch.
type VideoResult struct {
	VideoID string      `json:"video_id"`
	URL     string      `json:"url"`
	Status  VideoStatus `json:"status"`
	Source  string      `json:"source,omitempty"` // captions or whisper, when indexed
	Chunks  int         `json:"chunks,omitempty"`
	Reason  string      `json:"reason,omitempty"` // set when status is failed
}

// IngestReport summarizes a whole batch. Results preserve resolution order.
type IngestReport struct {
	InputURL string        `json:"input_url"`
	Results  []VideoResult `json:"results"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
}

// --- MCP tool inputs/outputs ---

// IngestInput is the input for the ingest_url tool.
type IngestInput struct {
	URL   string `json:"url"`
	Force bool   `json:"force,omitempty"` // purge and re-ingest existing videos
}

// AskInput is the input for the ask tool.
type AskInput struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// AskOutput is the output for the ask tool.
type AskOutput struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Sources  []ChunkSource `json:"sources,omitempty"`
}

// ChunkSource points a returned answer back at the transcript chunks it drew on.
type ChunkSource struct {
	VideoID    string  `json:"video_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	StartSec   float64 `json:"start,omitempty"`
}

// StatusInput is the (empty) input for the index_status tool.
type StatusInput struct{}

// StatusOutput is the output for the index_status tool.
type StatusOutput struct {
	Videos int `json:"videos"`
	Turns  int `json:"memory_turns"`
}

// ResetInput is the (empty) input for the reset_memory tool.
type ResetInput struct{}

// ResetOutput is the output for the reset_memory tool.
type ResetOutput struct {
	Cleared bool `json:"cleared"`
}
