// Package sources turns user-supplied YouTube URLs into transcripts.
// It is split by responsibility:
//
//	youtube.go            — URL cleaning, classification and resolution to video refs
//	youtube_innertube.go  — Innertube API types, constants, and low-level HTTP primitives
//	youtube_browse.go     — playlist and channel expansion into ordered video lists
//	youtube_transcript.go — transcript fetching (page scrape + engagement panel + ANDROID player)
//	whisper.go            — speech-to-text fallback for videos without captions
package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// URLKind classifies what a YouTube URL points at.
type URLKind int

const (
	URLUnknown URLKind = iota
	URLVideo
	URLPlaylist
	URLChannel
)

var (
	// urlRE pulls the first http(s) URL out of free-form input, so pasted
	// text around the link does not break resolution.
	urlRE = regexp.MustCompile(`https?://[^\s]+`)

	videoIDRE    = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|live/|embed/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	playlistIDRE = regexp.MustCompile(`youtube\.com/playlist\?(?:.*&)?list=([a-zA-Z0-9_-]+)`)
	channelRE    = regexp.MustCompile(`youtube\.com/(channel/[a-zA-Z0-9_-]+|@[a-zA-Z0-9._-]+|c/[a-zA-Z0-9_-]+|user/[a-zA-Z0-9_-]+)`)
)

// CleanURL extracts the first URL embedded in raw input. Returns "" when no
// URL is present.
func CleanURL(raw string) string {
	m := urlRE.FindString(raw)
	return strings.TrimRight(m, ".,;)>]\"'")
}

// extractVideoID pulls the 11-char video ID from any single-video URL format.
func extractVideoID(rawURL string) string {
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) >= 2 {
		return m[1]
	}
	return ""
}

// ClassifyURL determines what a cleaned YouTube URL points at and returns the
// extracted identifier: a video ID, a playlist ID, or a channel path like
// "channel/UC..." or "@handle". A watch URL carrying a list parameter counts
// as a single video; the playlist form is /playlist?list=.
func ClassifyURL(cleanURL string) (URLKind, string) {
	if id := extractVideoID(cleanURL); id != "" {
		return URLVideo, id
	}
	if m := playlistIDRE.FindStringSubmatch(cleanURL); len(m) >= 2 {
		return URLPlaylist, m[1]
	}
	if m := channelRE.FindStringSubmatch(cleanURL); len(m) >= 2 {
		return URLChannel, m[1]
	}
	return URLUnknown, ""
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ResolveVideoURLs resolves raw user input to the ordered list of videos it
// refers to. A video URL yields one ref; playlist and channel URLs expand to
// their videos in listing order. Expansion results are cached so repeated
// submissions of a collection URL skip the upstream listing calls.
func ResolveVideoURLs(ctx context.Context, raw string) ([]engine.VideoRef, error) {
	engine.IncrResolveRequests()

	cleaned := CleanURL(raw)
	if cleaned == "" {
		return nil, engine.Errf(engine.KindInvalidURL, "no URL found in input %q", engine.Truncate(raw, 80))
	}
	if _, err := url.Parse(cleaned); err != nil {
		return nil, engine.Errf(engine.KindInvalidURL, "malformed URL %q: %v", cleaned, err)
	}

	kind, id := ClassifyURL(cleaned)
	switch kind {
	case URLVideo:
		return []engine.VideoRef{{VideoID: id, URL: WatchURL(id)}}, nil

	case URLPlaylist:
		return resolveCollection(ctx, "playlist", id,
			"https://www.youtube.com/playlist?list="+id)

	case URLChannel:
		return resolveCollection(ctx, "channel", id,
			"https://www.youtube.com/"+id+"/videos")

	default:
		return nil, engine.Errf(engine.KindInvalidURL, "unrecognized YouTube URL %q", cleaned)
	}
}

// resolveCollection expands a playlist or channel page into video refs,
// consulting the cache first.
func resolveCollection(ctx context.Context, what, id, pageURL string) ([]engine.VideoRef, error) {
	key := engine.CacheKey("resolve", what, id)
	if refs, ok := engine.CacheLoadJSON[[]engine.VideoRef](ctx, key); ok && len(refs) > 0 {
		return refs, nil
	}

	ids, err := expandCollectionPage(ctx, pageURL)
	if err != nil {
		return nil, engine.WrapErr(engine.KindResolution, fmt.Errorf("expand %s %s: %w", what, id, err))
	}
	if len(ids) == 0 {
		return nil, engine.Errf(engine.KindResolution, "%s %s contains no videos", what, id)
	}

	refs := make([]engine.VideoRef, len(ids))
	for i, vid := range ids {
		refs[i] = engine.VideoRef{VideoID: vid, URL: WatchURL(vid)}
	}
	engine.CacheStoreJSON(ctx, key, refs)
	return refs, nil
}
