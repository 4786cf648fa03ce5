package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Speech-to-text fallback for videos without captions. The audio-only stream
// comes from the ANDROID Innertube /player response (its URLs are directly
// fetchable, no signature deciphering), and goes to an OpenAI-compatible
// /audio/transcriptions endpoint.

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperResp struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
}

// pickAudioFormat selects the smallest audio-only stream. Transcription
// quality does not depend on bitrate, download time does.
func pickAudioFormat(formats []adaptiveFormat) (adaptiveFormat, bool) {
	var best adaptiveFormat
	found := false
	for _, f := range formats {
		if f.URL == "" || !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if !found || f.Bitrate < best.Bitrate {
			best = f
			found = true
		}
	}
	return best, found
}

// resolveAudioURL finds a downloadable audio stream for the video.
func resolveAudioURL(ctx context.Context, videoID string) (adaptiveFormat, error) {
	playerResp, err := postInnerTubeANDROID(ctx, videoID)
	if err != nil {
		return adaptiveFormat{}, err
	}
	if playerResp.StreamingData == nil {
		reason := "no streaming data"
		if playerResp.PlayabilityStatus != nil && playerResp.PlayabilityStatus.Reason != "" {
			reason = playerResp.PlayabilityStatus.Reason
		}
		return adaptiveFormat{}, errors.New(reason)
	}
	format, ok := pickAudioFormat(playerResp.StreamingData.AdaptiveFormats)
	if !ok {
		return adaptiveFormat{}, errors.New("no audio-only format available")
	}
	if format.ContentLength != "" {
		if size, err := strconv.ParseInt(format.ContentLength, 10, 64); err == nil && size > engine.Cfg.MaxAudioBytes {
			return adaptiveFormat{}, fmt.Errorf("audio stream too large: %d bytes (limit %d)", size, engine.Cfg.MaxAudioBytes)
		}
	}
	return format, nil
}

// downloadAudio fetches the audio stream, capped at MaxAudioBytes.
func downloadAudio(ctx context.Context, streamURL string) ([]byte, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", ytAndroidUA)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	limit := engine.Cfg.MaxAudioBytes
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("audio stream exceeds %d bytes", limit)
	}
	return data, nil
}

// transcribeAudio sends the audio to the configured /audio/transcriptions
// endpoint and returns timed segments.
func transcribeAudio(ctx context.Context, audio []byte, filename string) (*whisperResp, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	_ = w.WriteField("model", engine.Cfg.WhisperModel)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(engine.Cfg.WhisperAPIBase, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if engine.Cfg.WhisperAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+engine.Cfg.WhisperAPIKey)
	}

	// No retry here: the request body is large and transcription backends
	// bill per audio minute.
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("transcription HTTP %d: %s", resp.StatusCode, snippet)
	}

	var out whisperResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode transcription: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return nil, errors.New("empty transcription")
	}
	return &out, nil
}

// GenerateTranscript produces a transcript for a video without captions by
// downloading its audio and running it through speech-to-text.
func GenerateTranscript(ctx context.Context, videoID string) (*engine.Transcript, error) {
	if engine.Cfg.WhisperAPIBase == "" {
		return nil, engine.Errf(engine.KindGeneration, "no speech-to-text endpoint configured")
	}

	format, err := resolveAudioURL(ctx, videoID)
	if err != nil {
		return nil, engine.WrapErr(engine.KindGeneration, fmt.Errorf("resolve audio %s: %w", videoID, err))
	}

	audio, err := downloadAudio(ctx, format.URL)
	if err != nil {
		return nil, engine.WrapErr(engine.KindGeneration, fmt.Errorf("audio %s: %w", videoID, err))
	}

	filename := "audio.m4a"
	if strings.Contains(format.MimeType, "webm") {
		filename = "audio.webm"
	}
	out, err := transcribeAudio(ctx, audio, filename)
	if err != nil {
		return nil, engine.WrapErr(engine.KindGeneration, fmt.Errorf("transcribe %s: %w", videoID, err))
	}

	segments := make([]engine.Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, engine.Segment{StartSec: s.Start, EndSec: s.End, Text: text})
	}

	engine.IncrTranscriptsWhisper()
	return &engine.Transcript{
		VideoID:  videoID,
		Text:     strings.TrimSpace(out.Text),
		Segments: segments,
		Source:   "whisper",
	}, nil
}
