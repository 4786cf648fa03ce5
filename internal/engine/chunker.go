package engine

import "strings"

// Transcript chunking. Chunks are bounded by a maximum character count with a
// configurable trailing overlap carried into the next chunk. Segment timing is
// preserved so each chunk knows which span of the video it covers.

// SplitTranscript splits a transcript into bounded chunks with contiguous
// chunk indexes starting at 0. size and overlap are in characters; overlap
// may be 0.
func SplitTranscript(t *Transcript, size, overlap int) []TranscriptChunk {
	if size <= 0 {
		size = 1500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	var chunks []TranscriptChunk
	if len(t.Segments) > 0 {
		chunks = splitSegments(t.VideoID, t.Segments, size, overlap)
	} else {
		chunks = splitPlainText(t.VideoID, t.Text, size, overlap)
	}

	for i := range chunks {
		chunks[i].ChunkIndex = i
	}
	return chunks
}

// splitSegments packs timed segments into chunks of at most size characters.
// A flushed chunk seeds the next one with trailing segments up to overlap
// characters, so context is not cut mid-thought at chunk boundaries.
func splitSegments(videoID string, segs []Segment, size, overlap int) []TranscriptChunk {
	var chunks []TranscriptChunk
	var cur []Segment
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		parts := make([]string, len(cur))
		for i, s := range cur {
			parts[i] = s.Text
		}
		chunks = append(chunks, TranscriptChunk{
			VideoID:  videoID,
			Text:     strings.Join(parts, " "),
			StartSec: cur[0].StartSec,
			EndSec:   cur[len(cur)-1].EndSec,
		})

		// Seed the next chunk with the overlap tail.
		var tail []Segment
		tailLen := 0
		for i := len(cur) - 1; i >= 0 && tailLen < overlap; i-- {
			tail = append([]Segment{cur[i]}, tail...)
			tailLen += len(cur[i].Text) + 1
		}
		if overlap == 0 || tailLen >= size {
			tail, tailLen = nil, 0
		}
		cur, curLen = tail, tailLen
	}

	for _, seg := range segs {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		// A single segment larger than the chunk bound gets hard-split.
		if len(text) > size {
			flush()
			cur, curLen = nil, 0
			for _, piece := range hardSplit(text, size) {
				chunks = append(chunks, TranscriptChunk{
					VideoID:  videoID,
					Text:     piece,
					StartSec: seg.StartSec,
					EndSec:   seg.EndSec,
				})
			}
			continue
		}
		if curLen+len(text)+1 > size && len(cur) > 0 {
			flush()
		}
		cur = append(cur, Segment{StartSec: seg.StartSec, EndSec: seg.EndSec, Text: text})
		curLen += len(text) + 1
	}
	// Final flush without seeding a successor.
	if len(cur) > 0 {
		parts := make([]string, len(cur))
		for i, s := range cur {
			parts[i] = s.Text
		}
		joined := strings.Join(parts, " ")
		// The overlap tail alone is not a chunk: only emit if it carries
		// content beyond what the previous chunk already covers.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1].Text, joined) {
			chunks = append(chunks, TranscriptChunk{
				VideoID:  videoID,
				Text:     joined,
				StartSec: cur[0].StartSec,
				EndSec:   cur[len(cur)-1].EndSec,
			})
		}
	}
	return chunks
}

// splitPlainText splits untimed text on word boundaries.
func splitPlainText(videoID, text string, size, overlap int) []TranscriptChunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	words := strings.Fields(text)
	var chunks []TranscriptChunk
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, TranscriptChunk{VideoID: videoID, Text: strings.Join(cur, " ")})

		var tail []string
		tailLen := 0
		for i := len(cur) - 1; i >= 0 && tailLen < overlap; i-- {
			tail = append([]string{cur[i]}, tail...)
			tailLen += len(cur[i]) + 1
		}
		if overlap == 0 || tailLen >= size {
			tail, tailLen = nil, 0
		}
		cur, curLen = tail, tailLen
	}

	for _, w := range words {
		if len(w) > size {
			flush()
			cur, curLen = nil, 0
			for _, piece := range hardSplit(w, size) {
				chunks = append(chunks, TranscriptChunk{VideoID: videoID, Text: piece})
			}
			continue
		}
		if curLen+len(w)+1 > size && len(cur) > 0 {
			flush()
		}
		cur = append(cur, w)
		curLen += len(w) + 1
	}
	if len(cur) > 0 {
		joined := strings.Join(cur, " ")
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1].Text, joined) {
			chunks = append(chunks, TranscriptChunk{VideoID: videoID, Text: joined})
		}
	}
	return chunks
}

// hardSplit cuts s into size-byte pieces with no regard for boundaries.
func hardSplit(s string, size int) []string {
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
