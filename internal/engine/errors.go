package engine

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure for the tool boundary. Every error that crosses
// into ragserver is wrapped in an *Error carrying one of these kinds.
type Kind string

const (
	KindInvalidURL       Kind = "invalid_url"
	KindResolution       Kind = "resolution"
	KindFetch            Kind = "fetch"
	KindGeneration       Kind = "generation"
	KindStoreWrite       Kind = "store_write"
	KindUnresolvedIntent Kind = "unresolved_intent"
	KindTimeout          Kind = "timeout"
	KindInternal         Kind = "internal"
)

// ErrNotAvailable is the definitive "no captions exist for this video" result
// from the transcript fetcher. It is not a transport failure: callers fall
// back to speech-to-text generation only when they see this value.
var ErrNotAvailable = errors.New("transcript not available")

// Error is a classified failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a classified error from a format string.
func Errf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapErr attaches a kind to err unless err already carries one.
func WrapErr(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the classification of err, defaulting to internal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// Classify normalizes an arbitrary error before it reaches the user-facing
// boundary: context expiry becomes a timeout, already-classified errors pass
// through, everything else is tagged internal.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindInternal, Err: err}
}
