package engine

import (
	"context"
	"testing"
)

func TestRetrieveFiltersBelowThreshold(t *testing.T) {
	testIngestConfig(t) // MinRelevance 0.75, TopK 4
	store := newFakeStore()
	store.hits = []ScoredChunk{
		{Chunk: TranscriptChunk{VideoID: "vidA", ChunkIndex: 0, Text: "relevant"}, Score: 0.91},
		{Chunk: TranscriptChunk{VideoID: "vidA", ChunkIndex: 3, Text: "borderline"}, Score: 0.75},
		{Chunk: TranscriptChunk{VideoID: "vidB", ChunkIndex: 1, Text: "weak"}, Score: 0.40},
	}

	got, err := NewRetriever(store).Retrieve(context.Background(), "what is discussed?", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2 (threshold is inclusive): %+v", len(got), got)
	}
	if got[0].Score < got[1].Score {
		t.Error("results not sorted best-first")
	}
	for _, h := range got {
		if h.Score < 0.75 {
			t.Errorf("chunk below threshold leaked through: %+v", h)
		}
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	testIngestConfig(t)
	got, err := NewRetriever(newFakeStore()).Retrieve(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no hits, got %d", len(got))
	}
}

func TestRetrieveRespectsK(t *testing.T) {
	testIngestConfig(t)
	store := newFakeStore()
	for i := 0; i < 6; i++ {
		store.hits = append(store.hits, ScoredChunk{
			Chunk: TranscriptChunk{VideoID: "vidA", ChunkIndex: i, Text: "x"},
			Score: 0.9,
		})
	}

	got, err := NewRetriever(store).Retrieve(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d chunks, want 2", len(got))
	}
}

func TestRetrieveDeterministicTieBreak(t *testing.T) {
	testIngestConfig(t)
	store := newFakeStore()
	store.hits = []ScoredChunk{
		{Chunk: TranscriptChunk{VideoID: "vidB", ChunkIndex: 0}, Score: 0.8},
		{Chunk: TranscriptChunk{VideoID: "vidA", ChunkIndex: 2}, Score: 0.8},
		{Chunk: TranscriptChunk{VideoID: "vidA", ChunkIndex: 1}, Score: 0.8},
	}

	got, err := NewRetriever(store).Retrieve(context.Background(), "q", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		video string
		index int
	}{{"vidA", 1}, {"vidA", 2}, {"vidB", 0}}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Chunk.VideoID != w.video || got[i].Chunk.ChunkIndex != w.index {
			t.Errorf("got[%d] = %s/%d, want %s/%d",
				i, got[i].Chunk.VideoID, got[i].Chunk.ChunkIndex, w.video, w.index)
		}
	}
}
