package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Resolver expands raw user input into the ordered list of videos it refers to.
type Resolver func(ctx context.Context, raw string) ([]VideoRef, error)

// Fetcher retrieves the existing caption transcript for one video. Returns
// ErrNotAvailable when the video definitively has no captions.
type Fetcher func(ctx context.Context, videoID string, langs []string) (*Transcript, error)

// Generator produces a transcript through speech-to-text for a video without
// captions.
type Generator func(ctx context.Context, videoID string) (*Transcript, error)

// Ingestor runs the URL → transcript → chunks → index pipeline. One video
// failing never aborts the rest of a batch.
type Ingestor struct {
	resolve  Resolver
	fetch    Fetcher
	generate Generator
	store    TranscriptStore

	// limiter spaces out external calls (transcript fetch, speech-to-text,
	// embedding) across all concurrent workers.
	limiter  *rate.Limiter
	inflight keyedMutex
}

// NewIngestor wires the pipeline. Call after Init().
func NewIngestor(resolve Resolver, fetch Fetcher, generate Generator, store TranscriptStore) *Ingestor {
	limit := rate.Inf
	burst := 1
	if cfg.ExternalRPS > 0 {
		limit = rate.Limit(cfg.ExternalRPS)
		if b := int(cfg.ExternalRPS); b > 1 {
			burst = b
		}
	}
	return &Ingestor{
		resolve:  resolve,
		fetch:    fetch,
		generate: generate,
		store:    store,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// IngestURL resolves raw input and indexes every video it refers to.
// Results keep resolution order regardless of worker scheduling. Returns an
// error only when resolution itself fails; per-video failures land in the
// report.
func (ing *Ingestor) IngestURL(ctx context.Context, raw string, force bool) (*IngestReport, error) {
	refs, err := ing.resolve(ctx, raw)
	if err != nil {
		return nil, Classify(err)
	}

	report := &IngestReport{
		InputURL: raw,
		Results:  make([]VideoResult, len(refs)),
	}

	workers := cfg.IngestConcurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(refs) {
		workers = len(refs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report.Results[i] = ing.ingestVideo(ctx, refs[i], force)
			}
		}()
	}
	for i := range refs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, r := range report.Results {
		switch r.Status {
		case StatusIndexed:
			report.Indexed++
		case StatusAlreadyIndexed:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	return report, nil
}

// ingestVideo runs the pipeline for one video and never returns an error:
// failures become a VideoResult so the rest of the batch continues.
func (ing *Ingestor) ingestVideo(ctx context.Context, ref VideoRef, force bool) VideoResult {
	result := VideoResult{VideoID: ref.VideoID, URL: ref.URL}

	// One pipeline per video at a time. Duplicates inside a single batch and
	// concurrent batches for the same video serialize here; the store's
	// primary key catches races across processes.
	unlock := ing.inflight.lock(ref.VideoID)
	defer unlock()

	if force {
		if err := ing.store.Purge(ctx, ref.VideoID); err != nil {
			return ing.failed(result, err)
		}
	} else {
		exists, err := ing.store.Exists(ctx, ref.VideoID)
		if err != nil {
			return ing.failed(result, err)
		}
		if exists {
			result.Status = StatusAlreadyIndexed
			return result
		}
	}

	transcript, err := ing.obtainTranscript(ctx, ref.VideoID)
	if err != nil {
		return ing.failed(result, err)
	}

	chunks := SplitTranscript(transcript, cfg.ChunkSize, cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return ing.failed(result, Errf(KindFetch, "transcript for %s is empty", ref.VideoID))
	}

	if err := ing.limiter.Wait(ctx); err != nil {
		return ing.failed(result, err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := EmbedTexts(ctx, texts)
	if err != nil {
		return ing.failed(result, err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := ing.store.Insert(ctx, ref, chunks); err != nil {
		if errors.Is(err, ErrAlreadyIndexed) {
			result.Status = StatusAlreadyIndexed
			return result
		}
		return ing.failed(result, err)
	}

	slog.Info("video indexed",
		slog.String("id", ref.VideoID),
		slog.String("source", transcript.Source),
		slog.Int("chunks", len(chunks)))
	result.Status = StatusIndexed
	result.Source = transcript.Source
	result.Chunks = len(chunks)
	return result
}

// obtainTranscript fetches captions, falling back to speech-to-text only when
// the fetcher says captions definitively do not exist. A transient fetch
// failure is not a license to spend minutes transcribing audio.
func (ing *Ingestor) obtainTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	if err := ing.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	fetchCtx, cancel := withTimeout(ctx, cfg.FetchTimeout)
	transcript, err := ing.fetch(fetchCtx, videoID, cfg.TranscriptLangs)
	cancel()
	if err == nil {
		return transcript, nil
	}
	if !errors.Is(err, ErrNotAvailable) {
		return nil, err
	}

	slog.Info("no captions, generating transcript", slog.String("id", videoID))
	if err := ing.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	genCtx, cancel := withTimeout(ctx, cfg.GenerateTimeout)
	defer cancel()
	return ing.generate(genCtx, videoID)
}

func (ing *Ingestor) failed(result VideoResult, err error) VideoResult {
	IncrIngestFailures()
	err = Classify(err)
	slog.Warn("video ingestion failed",
		slog.String("id", result.VideoID), slog.Any("err", err))
	result.Status = StatusFailed
	result.Reason = Truncate(err.Error(), 200)
	return result
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// keyedMutex serializes work per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
