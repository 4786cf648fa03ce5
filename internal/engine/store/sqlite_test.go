package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func chunksFor(videoID string, vecs ...[]float32) []engine.TranscriptChunk {
	out := make([]engine.TranscriptChunk, len(vecs))
	for i, v := range vecs {
		out[i] = engine.TranscriptChunk{
			VideoID:    videoID,
			ChunkIndex: i,
			Text:       "chunk text",
			Embedding:  v,
			StartSec:   float64(i * 30),
			EndSec:     float64(i*30 + 30),
		}
	}
	return out
}

func TestSQLiteInsertAndExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.False(t, ok)

	ref := engine.VideoRef{VideoID: "dQw4w9WgXcQ", URL: "https://youtu.be/dQw4w9WgXcQ"}
	require.NoError(t, s.Insert(ctx, ref, chunksFor(ref.VideoID, []float32{1, 0}, []float32{0, 1})))

	ok, err = s.Exists(ctx, ref.VideoID)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteDuplicateInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref := engine.VideoRef{VideoID: "abcdefghijk", URL: "https://youtu.be/abcdefghijk"}
	require.NoError(t, s.Insert(ctx, ref, chunksFor(ref.VideoID, []float32{1})))

	err := s.Insert(ctx, ref, chunksFor(ref.VideoID, []float32{1}))
	assert.True(t, errors.Is(err, engine.ErrAlreadyIndexed))

	// Losing insert must not have touched the committed chunk set.
	hits, err := s.Search(ctx, []float32{1}, 10, "")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSQLiteSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx,
		engine.VideoRef{VideoID: "videoAAAAAA", URL: "u"},
		chunksFor("videoAAAAAA", []float32{1, 0}, []float32{0, 1})))
	require.NoError(t, s.Insert(ctx,
		engine.VideoRef{VideoID: "videoBBBBBB", URL: "u"},
		chunksFor("videoBBBBBB", []float32{0.9, 0.1})))

	hits, err := s.Search(ctx, []float32{1, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "videoAAAAAA", hits[0].Chunk.VideoID)
	assert.Equal(t, 0, hits[0].Chunk.ChunkIndex)
	assert.Equal(t, "videoBBBBBB", hits[1].Chunk.VideoID)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	// Filter restricts candidates to one video.
	hits, err = s.Search(ctx, []float32{1, 0}, 10, "videoBBBBBB")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "videoBBBBBB", hits[0].Chunk.VideoID)
}

func TestSQLiteSearchPreservesTiming(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx,
		engine.VideoRef{VideoID: "timedvideo1", URL: "u"},
		chunksFor("timedvideo1", []float32{1}, []float32{1})))

	hits, err := s.Search(ctx, []float32{1}, 10, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 30.0, hits[1].Chunk.StartSec)
	assert.Equal(t, 60.0, hits[1].Chunk.EndSec)
}

func TestSQLitePurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref := engine.VideoRef{VideoID: "purgemevide", URL: "u"}
	require.NoError(t, s.Insert(ctx, ref, chunksFor(ref.VideoID, []float32{1})))
	require.NoError(t, s.Purge(ctx, ref.VideoID))

	ok, err := s.Exists(ctx, ref.VideoID)
	require.NoError(t, err)
	assert.False(t, ok)

	hits, err := s.Search(ctx, []float32{1}, 10, "")
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Purging an absent video is a no-op.
	require.NoError(t, s.Purge(ctx, "purgemevide"))
}
