package engine

import (
	"context"
	"errors"
)

// TranscriptStore is the persistence boundary for indexed transcripts.
// Implementations live in internal/engine/store (SQLite and Postgres).
//
// Insert is all-or-nothing: a video is never observable as existing with a
// partial chunk set. Concurrent inserts for the same video_id resolve to
// at most one winner; losers get ErrAlreadyIndexed.
type TranscriptStore interface {
	// Exists reports whether at least one chunk is indexed for the video.
	Exists(ctx context.Context, videoID string) (bool, error)
	// Insert writes the video reference and all its chunks atomically.
	Insert(ctx context.Context, ref VideoRef, chunks []TranscriptChunk) error
	// Search returns up to k chunks ranked by descending relevance to the
	// query vector. videoID, when non-empty, restricts results to one video.
	// Identical query + identical index state yields identical ordering.
	Search(ctx context.Context, queryVec []float32, k int, videoID string) ([]ScoredChunk, error)
	// Count returns the number of indexed videos.
	Count(ctx context.Context) (int, error)
	// Purge removes a video and all its chunks. Removing an absent video is a no-op.
	Purge(ctx context.Context, videoID string) error
	Close() error
}

// ErrAlreadyIndexed reports a duplicate insert for a video_id that already
// has a committed transcript record.
var ErrAlreadyIndexed = errors.New("video already indexed")
