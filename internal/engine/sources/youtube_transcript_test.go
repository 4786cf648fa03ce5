package sources

import (
	"encoding/json"
	"encoding/xml"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func TestTimedTextParsing(t *testing.T) {
	raw := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.5" dur="2.1">hello &amp;amp; welcome</text>
  <text start="2.6" dur="1.0"><b>second</b> line</text>
  <text start="3.6" dur="0.5">   </text>
</transcript>`

	var tt ytTimedText
	if err := xml.Unmarshal([]byte(raw), &tt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tt.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(tt.Lines))
	}
	if tt.Lines[0].Start != 0.5 || tt.Lines[0].Dur != 2.1 {
		t.Errorf("timing = (%v, %v), want (0.5, 2.1)", tt.Lines[0].Start, tt.Lines[0].Dur)
	}
	if got := engine.CleanHTML(tt.Lines[1].Text); got != "second line" {
		t.Errorf("cleaned = %q, want %q", got, "second line")
	}
}

func TestParseTranscriptSegments(t *testing.T) {
	raw := `{"actions":[{"updateEngagementPanelAction":{"content":{"transcriptRenderer":{"content":
{"transcriptSearchPanelRenderer":{"body":{"transcriptSegmentListRenderer":{"initialSegments":[
{"transcriptSegmentRenderer":{"startMs":"1000","endMs":"2500","snippet":{"runs":[{"text":"first"},{"text":"part"}]}}},
{"transcriptSegmentRenderer":{"startMs":"2500","endMs":"4000","snippet":{"runs":[{"text":"second"}]}}},
{"transcriptSegmentRenderer":{"startMs":"4000","endMs":"4100","snippet":{"runs":[{"text":""}]}}}
]}}}}}}}}]}`

	var resp ytGetTranscriptResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	segments := parseTranscriptSegments(resp)
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[0].Text != "first part" {
		t.Errorf("text = %q, want %q", segments[0].Text, "first part")
	}
	if segments[0].StartSec != 1.0 || segments[0].EndSec != 2.5 {
		t.Errorf("timing = (%v, %v), want (1, 2.5)", segments[0].StartSec, segments[0].EndSec)
	}
}

func TestJoinSegments(t *testing.T) {
	got := joinSegments([]engine.Segment{
		{Text: "one"}, {Text: "two"}, {Text: "three"},
	})
	if got != "one two three" {
		t.Errorf("joined = %q", got)
	}
	if joinSegments(nil) != "" {
		t.Error("empty input should join to empty string")
	}
}
