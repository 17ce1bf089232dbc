package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// CosineSimilarity returns dot(a, b) / (|a| |b|), clamped to [-1, 1].
// Zero-length, zero-norm or mismatched vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	default:
		return sim
	}
}

// TopK ranks corpus entries against query and returns the best
// min(k, len(corpus)) matches in non-increasing score order.
// Equal scores keep corpus order.
func TopK(query []float32, corpus []string, vectors [][]float32, k int) []domain.Match {
	n := len(corpus)
	if len(vectors) < n {
		n = len(vectors)
	}
	if k <= 0 || n == 0 {
		return nil
	}

	matches := make([]domain.Match, n)
	for i := 0; i < n; i++ {
		matches[i] = domain.Match{
			Index:  i,
			Phrase: corpus[i],
			Score:  CosineSimilarity(query, vectors[i]),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < n {
		matches = matches[:k]
	}
	return matches
}

// EmbedMany embeds texts in chunks of batchSize, preserving order.
// A non-positive batchSize uses domain.DefaultBatchSize.
func EmbedMany(ctx context.Context, svc driven.EmbeddingService, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := svc.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts", start, end, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// Retriever ranks a corpus against free-text queries.
type Retriever struct {
	embedder driven.EmbeddingService
}

// NewRetriever creates a retriever backed by the given embedding service.
func NewRetriever(embedder driven.EmbeddingService) *Retriever {
	return &Retriever{embedder: embedder}
}

// TopK embeds query once and returns the k closest corpus entries.
// Callers must not pass an empty corpus. A query embedding whose length
// differs from the cached vectors is domain.ErrCacheMismatch.
func (r *Retriever) TopK(
	ctx context.Context, query string, corpus []string, vectors [][]float32, k int,
) ([]domain.Match, error) {
	if len(corpus) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if len(corpus) != len(vectors) {
		return nil, fmt.Errorf("retrieve: %w (%d phrases, %d embeddings)",
			domain.ErrCacheMismatch, len(corpus), len(vectors))
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	queryVec, err := r.embedder.Embed(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}
	if len(queryVec) != len(vectors[0]) {
		return nil, fmt.Errorf("retrieve: %w (query has %d dimensions, cache has %d)",
			domain.ErrCacheMismatch, len(queryVec), len(vectors[0]))
	}

	matches := TopK(queryVec, corpus, vectors, k)
	if len(matches) > 0 {
		logger.Debug("retrieve: top match %q score=%.4f", matches[0].Phrase, matches[0].Score)
	}
	return matches, nil
}
