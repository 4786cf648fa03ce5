package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapErrKeepsExistingKind(t *testing.T) {
	inner := Errf(KindFetch, "HTTP 503")
	wrapped := WrapErr(KindInternal, fmt.Errorf("pipeline: %w", inner))
	if KindOf(wrapped) != KindFetch {
		t.Errorf("kind = %s, want %s (first classification wins)", KindOf(wrapped), KindFetch)
	}
}

func TestWrapErrNil(t *testing.T) {
	if WrapErr(KindFetch, nil) != nil {
		t.Error("wrapping nil should stay nil")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("kind = %s, want %s", got, KindInternal)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), KindTimeout},
		{"already classified", Errf(KindInvalidURL, "bad"), KindInvalidURL},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(Classify(tt.err)); got != tt.want {
				t.Errorf("Classify kind = %s, want %s", got, tt.want)
			}
		})
	}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestErrorUnwrap(t *testing.T) {
	sentinel := errors.New("root cause")
	err := WrapErr(KindStoreWrite, sentinel)
	if !errors.Is(err, sentinel) {
		t.Error("classified error should unwrap to its cause")
	}
}
