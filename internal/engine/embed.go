package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Embedding client for an OpenAI-compatible /embeddings endpoint.
// The vector dimensionality is whatever the configured model returns; the
// store persists it verbatim and search compares like with like.

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// embedBatchMax caps texts per request. Chunked transcripts of long videos
// can run into hundreds of chunks; embedding servers reject oversized batches.
const embedBatchMax = 64

// EmbedTexts embeds a slice of texts, preserving order.
func EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchMax {
		end := start + embedBatchMax
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	IncrEmbedCalls()

	body, err := json.Marshal(embedRequest{Model: cfg.EmbedModel, Input: texts})
	if err != nil {
		return nil, err
	}

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.EmbedAPIBase+"/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if cfg.EmbedAPIKey != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.EmbedAPIKey)
		}
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		IncrEmbedErrors()
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		IncrEmbedErrors()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("embeddings: HTTP %d: %s", resp.StatusCode, snippet)
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		IncrEmbedErrors()
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(er.Data) != len(texts) {
		IncrEmbedErrors()
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(er.Data), len(texts))
	}

	// The API is allowed to return data out of order; index is authoritative.
	vecs := make([][]float32, len(texts))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
