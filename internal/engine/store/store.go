// Package store provides TranscriptStore backends: a SQLite file store
// (default) and a Postgres store for shared deployments. Both persist
// {video_id, chunk_index, text, embedding, timing} records and rank search
// results by cosine similarity computed over the stored vectors.
package store

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// CosineSimilarity computes the cosine of the angle between a and b.
// Returns 0 for mismatched lengths or zero-norm vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankChunks scores candidates against the query vector and returns the top k
// in descending score order. Ties break on (video_id, chunk_index) so the
// ordering is deterministic for identical inputs.
func rankChunks(queryVec []float32, candidates []engine.TranscriptChunk, k int) []engine.ScoredChunk {
	scored := make([]engine.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, engine.ScoredChunk{
			Chunk: c,
			Score: CosineSimilarity(queryVec, c.Embedding),
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.VideoID != scored[j].Chunk.VideoID {
			return scored[i].Chunk.VideoID < scored[j].Chunk.VideoID
		}
		return scored[i].Chunk.ChunkIndex < scored[j].Chunk.ChunkIndex
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// encodeVector serializes an embedding as little-endian float32 bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
