package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Playlist and channel expansion. The listing page ships its first batch of
// videos inside ytInitialData; further batches come from the Innertube /browse
// endpoint via continuation tokens.

const (
	ytInitialDataMarker = "var ytInitialData = "
	maxCollectionVideos = 500
	maxBrowsePages      = 10
)

// Video IDs are matched on the raw JSON rather than decoded structures so the
// listing order is preserved.
var (
	listedVideoIDRE     = regexp.MustCompile(`"(?:playlistVideoRenderer|videoRenderer|reelItemRenderer|gridVideoRenderer)":\{"videoId":"([a-zA-Z0-9_-]{11})"`)
	continuationTokenRE = regexp.MustCompile(`"continuationCommand":\{"token":"([^"]+)"`)
)

// expandCollectionPage fetches a playlist or channel videos page and returns
// the video IDs in listing order, following /browse continuations.
func expandCollectionPage(ctx context.Context, pageURL string) ([]string, error) {
	body, err := fetchListingPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	idx := strings.Index(string(body), ytInitialDataMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialData not found in listing page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialDataMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialData JSON")
	}

	var ids []string
	seen := make(map[string]bool)
	ids = collectVideoIDs(jsonData, ids, seen)

	visitorData := generateVisitorData()
	token := lastContinuationToken(jsonData)
	for page := 0; token != "" && len(ids) < maxCollectionVideos && page < maxBrowsePages; page++ {
		data, err := postInnerTubeWEB(ctx, ytBrowseURL, map[string]any{
			"continuation": token,
			"context":      ytWebContext(visitorData),
		}, visitorData)
		if err != nil {
			// Keep what the page already gave us.
			slog.Warn("youtube: browse continuation failed",
				slog.Int("have", len(ids)), slog.Any("err", err))
			break
		}
		before := len(ids)
		ids = collectVideoIDs(data, ids, seen)
		if len(ids) == before {
			break
		}
		token = lastContinuationToken(data)
	}

	if len(ids) > maxCollectionVideos {
		ids = ids[:maxCollectionVideos]
	}
	return ids, nil
}

func fetchListingPage(ctx context.Context, pageURL string) ([]byte, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("listing page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read listing page: %w", err)
	}
	return body, nil
}

// collectVideoIDs appends video IDs found in data, in byte order, skipping
// ones already seen. Each video appears several times in the JSON (thumbnail,
// navigation endpoint), so first occurrence wins.
func collectVideoIDs(data []byte, ids []string, seen map[string]bool) []string {
	for _, m := range listedVideoIDRE.FindAllSubmatch(data, -1) {
		id := string(m[1])
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		if len(ids) >= maxCollectionVideos {
			break
		}
	}
	return ids
}

// lastContinuationToken returns the trailing continuation token, which loads
// the next batch of list items. Earlier tokens belong to unrelated panels.
func lastContinuationToken(data []byte) string {
	matches := continuationTokenRE.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return ""
	}
	return string(matches[len(matches)-1][1])
}
