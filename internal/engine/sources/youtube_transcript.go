package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// YouTube transcript fetching.
// Primary:   scrape watch page ytInitialPlayerResponse → caption XML (works from any IP)
// Fallback:  /next → engagement panel → /get_transcript (works from datacenter IPs)
// Fallback:  ANDROID Innertube /player → captionTracks
//
// A video that demonstrably has no caption tracks yields engine.ErrNotAvailable
// so the caller can switch to speech-to-text. Transport failures stay ordinary
// errors: generating a transcript for a video whose captions merely failed to
// download would waste minutes of audio processing.

// errNoCaptions marks a rung that got a well-formed answer saying the video
// has no usable caption tracks.
var errNoCaptions = errors.New("no caption tracks")

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// parseTranscriptSegments extracts timed segments from a /get_transcript JSON response.
func parseTranscriptSegments(resp ytGetTranscriptResp) []engine.Segment {
	var segments []engine.Segment
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				if run.Text != "" {
					if sb.Len() > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(run.Text)
				}
			}
			text := strings.TrimSpace(sb.String())
			if text == "" {
				continue
			}
			startMs, _ := strconv.ParseFloat(r.StartMs, 64)
			endMs, _ := strconv.ParseFloat(r.EndMs, 64)
			segments = append(segments, engine.Segment{
				StartSec: startMs / 1000,
				EndSec:   endMs / 1000,
				Text:     text,
			})
		}
	}
	return segments
}

// fetchViaEngagementPanel fetches a transcript via:
//  1. POST /next → get engagementPanels containing transcript continuation token
//  2. POST /get_transcript with the token → JSON segments
//
// This approach works from datacenter IPs where /player returns LOGIN_REQUIRED.
func fetchViaEngagementPanel(ctx context.Context, videoID string) ([]engine.Segment, error) {
	visitorData := generateVisitorData()

	nextData, err := postInnerTubeWEB(ctx, ytNextURL, map[string]any{
		"videoId": videoID,
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		// No transcript panel on a well-formed watch response means the
		// video ships no transcript at all.
		return nil, fmt.Errorf("%w: %s", errNoCaptions, err)
	}

	transcriptData, err := postInnerTubeWEB(ctx, ytGetTranscriptURL, map[string]any{
		"params": token,
		"context": map[string]any{
			"client": ytWebClientCtx{
				ClientName:    "WEB",
				ClientVersion: ytWebVersion,
				VisitorData:   visitorData,
				Hl:            "en",
				Gl:            "US",
			},
		},
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	segments := parseTranscriptSegments(transcriptResp)
	if len(segments) == 0 {
		return nil, errors.New("empty transcript segments")
	}
	return segments, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken — those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL into
// timed segments.
func fetchTimedText(ctx context.Context, baseURL string) ([]engine.Segment, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}

	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]engine.Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, engine.Segment{
			StartSec: line.Start,
			EndSec:   line.Start + line.Dur,
			Text:     text,
		})
	}
	if len(segments) == 0 {
		return nil, errors.New("empty timedtext")
	}
	return segments, nil
}

// segmentsFromPlayerResp picks a caption track from a player response and
// downloads it. Returns errNoCaptions when the response is valid but carries
// no usable tracks.
func segmentsFromPlayerResp(ctx context.Context, playerResp *innertubePlayerResp, langs []string) ([]engine.Segment, error) {
	if playerResp.Captions == nil {
		if playerResp.PlayabilityStatus != nil && playerResp.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("%w: %s", errNoCaptions, playerResp.PlayabilityStatus.Reason)
		}
		return nil, errNoCaptions
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errNoCaptions
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return nil, fmt.Errorf("%w: all tracks require PoToken", errNoCaptions)
	}
	return fetchTimedText(ctx, track.BaseURL)
}

// fetchViaPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func fetchViaPlayer(ctx context.Context, videoID string, langs []string) ([]engine.Segment, error) {
	playerResp, err := postInnerTubeANDROID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return segmentsFromPlayerResp(ctx, playerResp, langs)
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// fetchViaPageScrape scrapes the YouTube watch page HTML and extracts the
// caption track XML URL from ytInitialPlayerResponse. Works from any IP.
func fetchViaPageScrape(ctx context.Context, videoID string, langs []string) ([]engine.Segment, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, WatchURL(videoID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return segmentsFromPlayerResp(ctx, &playerResp, langs)
}

// joinSegments concatenates segment texts into the full transcript body.
func joinSegments(segments []engine.Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// FetchTranscript fetches the caption transcript for a YouTube video.
// Returns engine.ErrNotAvailable when every reachable source agrees the video
// has no captions; any transport failure along the way makes the whole fetch
// a transport failure instead.
func FetchTranscript(ctx context.Context, videoID string, langs []string) (*engine.Transcript, error) {
	engine.IncrTranscriptFetches()

	type rung struct {
		name  string
		fetch func(context.Context) ([]engine.Segment, error)
	}
	rungs := []rung{
		{"page scrape", func(ctx context.Context) ([]engine.Segment, error) {
			return fetchViaPageScrape(ctx, videoID, langs)
		}},
		{"engagement panel", func(ctx context.Context) ([]engine.Segment, error) {
			return fetchViaEngagementPanel(ctx, videoID)
		}},
		{"android player", func(ctx context.Context) ([]engine.Segment, error) {
			return fetchViaPlayer(ctx, videoID, langs)
		}},
	}

	notAvailable := true
	var lastErr error
	for _, r := range rungs {
		segments, err := r.fetch(ctx)
		if err == nil {
			engine.IncrTranscriptsFetched()
			return &engine.Transcript{
				VideoID:  videoID,
				Text:     joinSegments(segments),
				Segments: segments,
				Source:   "captions",
			}, nil
		}
		if ctx.Err() != nil {
			return nil, engine.WrapErr(engine.KindFetch, fmt.Errorf("%s: %w", r.name, err))
		}
		if !errors.Is(err, errNoCaptions) {
			notAvailable = false
		}
		lastErr = fmt.Errorf("%s: %w", r.name, err)
		slog.Warn("youtube: transcript source failed",
			slog.String("id", videoID), slog.String("source", r.name), slog.Any("err", err))
	}

	if notAvailable {
		return nil, engine.ErrNotAvailable
	}
	return nil, engine.WrapErr(engine.KindFetch, lastErr)
}
