package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched length", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRankChunks(t *testing.T) {
	query := []float32{1, 0}
	candidates := []engine.TranscriptChunk{
		{VideoID: "vidB", ChunkIndex: 0, Embedding: []float32{0, 1}},   // score 0
		{VideoID: "vidA", ChunkIndex: 1, Embedding: []float32{1, 0}},   // score 1
		{VideoID: "vidA", ChunkIndex: 0, Embedding: []float32{1, 1}},   // score ~0.707
		{VideoID: "vidC", ChunkIndex: 0, Embedding: []float32{1, 0}},   // score 1, ties with vidA/1
	}

	got := rankChunks(query, candidates, 3)
	if assert.Len(t, got, 3) {
		// Equal scores break ties on video_id, then chunk_index.
		assert.Equal(t, "vidA", got[0].Chunk.VideoID)
		assert.Equal(t, 1, got[0].Chunk.ChunkIndex)
		assert.Equal(t, "vidC", got[1].Chunk.VideoID)
		assert.Equal(t, "vidA", got[2].Chunk.VideoID)
		assert.Equal(t, 0, got[2].Chunk.ChunkIndex)
	}
}

func TestRankChunksKLargerThanCandidates(t *testing.T) {
	got := rankChunks([]float32{1}, []engine.TranscriptChunk{
		{VideoID: "v", ChunkIndex: 0, Embedding: []float32{1}},
	}, 10)
	assert.Len(t, got, 1)
}

func TestVectorRoundTrip(t *testing.T) {
	orig := []float32{0.25, -1.5, 3.75, 0}
	assert.Equal(t, orig, decodeVector(encodeVector(orig)))

	assert.Empty(t, decodeVector(encodeVector(nil)))
}
