package engine

import (
	"strings"
	"testing"
)

func TestSplitTranscriptPlainText(t *testing.T) {
	words := make([]string, 400)
	for i := range words {
		words[i] = "word"
	}
	tr := &Transcript{VideoID: "plainvideo1", Text: strings.Join(words, " ")}

	chunks := SplitTranscript(tr, 500, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 500 {
			t.Errorf("chunk %d exceeds size: %d", i, len(c.Text))
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.VideoID != "plainvideo1" {
			t.Errorf("chunk %d has video %q", i, c.VideoID)
		}
	}
}

func TestSplitTranscriptOverlap(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = "word"
	}
	tr := &Transcript{VideoID: "v", Text: strings.Join(words, " ")}

	chunks := SplitTranscript(tr, 300, 60)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i].Text
		if len(head) > 60 {
			head = head[:60]
		}
		firstWord := strings.Fields(head)[0]
		if !strings.Contains(chunks[i-1].Text, firstWord) {
			t.Errorf("chunk %d does not overlap its predecessor", i)
		}
	}
}

func TestSplitTranscriptSegmentsTiming(t *testing.T) {
	tr := &Transcript{
		VideoID: "timedvideo1",
		Segments: []Segment{
			{StartSec: 0, EndSec: 5, Text: strings.Repeat("a", 200)},
			{StartSec: 5, EndSec: 10, Text: strings.Repeat("b", 200)},
			{StartSec: 10, EndSec: 15, Text: strings.Repeat("c", 200)},
		},
	}

	chunks := SplitTranscript(tr, 450, 0)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].StartSec != 0 || chunks[0].EndSec != 10 {
		t.Errorf("chunk 0 spans (%v, %v), want (0, 10)", chunks[0].StartSec, chunks[0].EndSec)
	}
	if chunks[1].StartSec != 10 || chunks[1].EndSec != 15 {
		t.Errorf("chunk 1 spans (%v, %v), want (10, 15)", chunks[1].StartSec, chunks[1].EndSec)
	}
}

func TestSplitTranscriptOversizedSegment(t *testing.T) {
	tr := &Transcript{
		VideoID: "v",
		Segments: []Segment{
			{StartSec: 0, EndSec: 60, Text: strings.Repeat("x", 1200)},
		},
	}
	chunks := SplitTranscript(tr, 500, 0)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if len(c.Text) > 500 {
			t.Errorf("hard-split chunk exceeds size: %d", len(c.Text))
		}
		total += len(c.Text)
	}
	if total != 1200 {
		t.Errorf("content lost in hard split: %d bytes", total)
	}
}

func TestSplitTranscriptEmpty(t *testing.T) {
	if got := SplitTranscript(&Transcript{VideoID: "v", Text: "  "}, 1500, 300); len(got) != 0 {
		t.Errorf("expected no chunks for blank text, got %d", len(got))
	}
	if got := SplitTranscript(&Transcript{VideoID: "v"}, 1500, 300); len(got) != 0 {
		t.Errorf("expected no chunks for empty transcript, got %d", len(got))
	}
}

func TestSplitTranscriptShortText(t *testing.T) {
	chunks := SplitTranscript(&Transcript{VideoID: "v", Text: "short and sweet"}, 1500, 300)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "short and sweet" {
		t.Errorf("text = %q", chunks[0].Text)
	}
}

func TestSplitTranscriptDefaults(t *testing.T) {
	// size <= 0 falls back to the default bound; overlap >= size is clamped.
	tr := &Transcript{VideoID: "v", Text: strings.Repeat("word ", 1000)}
	chunks := SplitTranscript(tr, 0, 9999)
	for i, c := range chunks {
		if len(c.Text) > 1500 {
			t.Errorf("chunk %d exceeds default size: %d", i, len(c.Text))
		}
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
}
