package engine

import (
	"context"
	"log/slog"
	"sort"
)

// Retriever answers "which indexed chunks are relevant to this question".
// When query expansion is enabled it searches with LLM-generated variants of
// the question as well and merges the result sets, which recovers chunks that
// phrase the topic differently than the user did.
type Retriever struct {
	store TranscriptStore
}

func NewRetriever(store TranscriptStore) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns up to k chunks relevant to the question, best first.
// Chunks scoring below MinRelevance are dropped; an empty result means the
// index holds nothing usable for this question.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]ScoredChunk, error) {
	IncrSearches()
	if k <= 0 {
		k = cfg.TopK
	}

	queries := []string{question}
	if cfg.MultiQueryVariants > 0 {
		variants, err := ExpandSearchQueries(ctx, question, cfg.MultiQueryVariants)
		if err != nil {
			// Expansion is an enhancement; the original question still works.
			slog.Warn("query expansion failed", slog.Any("err", err))
		} else {
			queries = append(queries, variants...)
		}
	}

	type chunkKey struct {
		videoID string
		index   int
	}
	merged := make(map[chunkKey]ScoredChunk)
	for _, q := range queries {
		vec, err := EmbedQuery(ctx, q)
		if err != nil {
			return nil, WrapErr(KindInternal, err)
		}
		hits, err := r.store.Search(ctx, vec, k, "")
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			key := chunkKey{h.Chunk.VideoID, h.Chunk.ChunkIndex}
			if prev, ok := merged[key]; !ok || h.Score > prev.Score {
				merged[key] = h
			}
		}
	}

	results := make([]ScoredChunk, 0, len(merged))
	for _, h := range merged {
		if h.Score >= cfg.MinRelevance {
			results = append(results, h)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.VideoID != results[j].Chunk.VideoID {
			return results[i].Chunk.VideoID < results[j].Chunk.VideoID
		}
		return results[i].Chunk.ChunkIndex < results[j].Chunk.ChunkIndex
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
