package sources

import (
	"testing"
)

func TestCleanURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare url", "https://youtu.be/dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ"},
		{"surrounding text", "check this out https://youtu.be/dQw4w9WgXcQ please", "https://youtu.be/dQw4w9WgXcQ"},
		{"trailing punctuation", "see https://youtu.be/dQw4w9WgXcQ.", "https://youtu.be/dQw4w9WgXcQ"},
		{"http scheme", "http://www.youtube.com/watch?v=dQw4w9WgXcQ", "http://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"no url", "what is this video about", ""},
		{"empty", "", ""},
		{"first of two", "https://youtu.be/aaaaaaaaaaa and https://youtu.be/bbbbbbbbbbb", "https://youtu.be/aaaaaaaaaaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanURL(tt.in); got != tt.want {
				t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantKind URLKind
		wantID   string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", URLVideo, "dQw4w9WgXcQ"},
		{"watch extra params", "https://www.youtube.com/watch?t=10&v=dQw4w9WgXcQ", URLVideo, "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", URLVideo, "dQw4w9WgXcQ"},
		{"short link with t", "https://youtu.be/dQw4w9WgXcQ?t=42", URLVideo, "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", URLVideo, "dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ", URLVideo, "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", URLVideo, "dQw4w9WgXcQ"},
		// A watch URL inside a playlist still plays one video.
		{"watch with list", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123", URLVideo, "dQw4w9WgXcQ"},
		{"playlist", "https://www.youtube.com/playlist?list=PLBCF2DAC6FFB574DE", URLPlaylist, "PLBCF2DAC6FFB574DE"},
		{"channel id", "https://www.youtube.com/channel/UCBR8-60-B28hp2BmDPdntcQ", URLChannel, "channel/UCBR8-60-B28hp2BmDPdntcQ"},
		{"handle", "https://www.youtube.com/@veritasium", URLChannel, "@veritasium"},
		{"legacy c path", "https://www.youtube.com/c/veritasium", URLChannel, "c/veritasium"},
		{"legacy user path", "https://www.youtube.com/user/1veritasium", URLChannel, "user/1veritasium"},
		{"not youtube", "https://example.com/watch?v=dQw4w9WgXcQ", URLUnknown, ""},
		{"garbage", "https://youtube.com/somewhere/else", URLUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, id := ClassifyURL(tt.url)
			if kind != tt.wantKind || id != tt.wantID {
				t.Errorf("ClassifyURL(%q) = (%v, %q), want (%v, %q)", tt.url, kind, id, tt.wantKind, tt.wantID)
			}
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	if id := extractVideoID("https://youtu.be/short"); id != "" {
		t.Errorf("expected no match for short ID, got %q", id)
	}
	if id := extractVideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"); id != "dQw4w9WgXcQ" {
		t.Errorf("got %q", id)
	}
}

func TestPickBestTrack(t *testing.T) {
	manual := captionTrack{BaseURL: "https://yt/manual", LanguageCode: "en"}
	asr := captionTrack{BaseURL: "https://yt/asr", LanguageCode: "en", Kind: "asr"}
	german := captionTrack{BaseURL: "https://yt/de", LanguageCode: "de"}
	poToken := captionTrack{BaseURL: "https://yt/pot&exp=xpe", LanguageCode: "en"}

	tests := []struct {
		name    string
		tracks  []captionTrack
		langs   []string
		wantURL string
		wantOK  bool
	}{
		{"manual beats asr", []captionTrack{asr, manual}, []string{"en"}, manual.BaseURL, true},
		{"asr when only option", []captionTrack{asr}, []string{"en"}, asr.BaseURL, true},
		{"preferred language wins", []captionTrack{manual, german}, []string{"de"}, german.BaseURL, true},
		{"english fallback", []captionTrack{german, manual}, []string{"fr"}, manual.BaseURL, true},
		{"any fallback", []captionTrack{german}, []string{"fr"}, german.BaseURL, true},
		{"potoken skipped", []captionTrack{poToken, asr}, []string{"en"}, asr.BaseURL, true},
		{"all potoken", []captionTrack{poToken}, []string{"en"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, ok := pickBestTrack(tt.tracks, tt.langs)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && track.BaseURL != tt.wantURL {
				t.Errorf("picked %q, want %q", track.BaseURL, tt.wantURL)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", `{"a":1};rest`, `{"a":1}`},
		{"nested", `{"a":{"b":2}}tail`, `{"a":{"b":2}}`},
		{"braces in string", `{"a":"}{"}x`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"\"}{"}`, `{"a":"\"}{"}`},
		{"not json", `var x = 1`, ""},
		{"unterminated", `{"a":1`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(extractJSON([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCollectVideoIDsPreservesOrder(t *testing.T) {
	data := []byte(`{"contents":[` +
		`{"playlistVideoRenderer":{"videoId":"aaaaaaaaaaa","thumbnail":{}}},` +
		`{"playlistVideoRenderer":{"videoId":"bbbbbbbbbbb"}},` +
		`{"playlistVideoRenderer":{"videoId":"aaaaaaaaaaa"}},` +
		`{"playlistVideoRenderer":{"videoId":"ccccccccccc"}}]}`)

	ids := collectVideoIDs(data, nil, make(map[string]bool))
	want := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids, want %d: %v", len(ids), len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestLastContinuationToken(t *testing.T) {
	data := []byte(`{"continuationCommand":{"token":"first"},"x":{"continuationCommand":{"token":"second"}}}`)
	if got := lastContinuationToken(data); got != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}
	if got := lastContinuationToken([]byte(`{}`)); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestPickAudioFormat(t *testing.T) {
	video := adaptiveFormat{MimeType: "video/mp4", Bitrate: 100, URL: "https://yt/v"}
	hi := adaptiveFormat{MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128000, URL: "https://yt/hi"}
	lo := adaptiveFormat{MimeType: `audio/webm; codecs="opus"`, Bitrate: 50000, URL: "https://yt/lo"}
	noURL := adaptiveFormat{MimeType: "audio/mp4", Bitrate: 1}

	got, ok := pickAudioFormat([]adaptiveFormat{video, hi, lo, noURL})
	if !ok {
		t.Fatal("expected a format")
	}
	if got.URL != lo.URL {
		t.Errorf("picked %q, want lowest-bitrate audio %q", got.URL, lo.URL)
	}

	if _, ok := pickAudioFormat([]adaptiveFormat{video}); ok {
		t.Error("expected no audio format among video-only streams")
	}
}

func TestExtractTranscriptToken(t *testing.T) {
	data := []byte(`{"getTranscriptEndpoint":{"params":"CgNhYmM%3D"}}`)
	token, err := extractTranscriptToken(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "CgNhYmM=" {
		t.Errorf("token = %q, want URL-decoded form", token)
	}

	if _, err := extractTranscriptToken([]byte(`{}`)); err == nil {
		t.Error("expected error when endpoint missing")
	}
}
