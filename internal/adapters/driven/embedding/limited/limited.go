// Package limited wraps an embedding service with a token-bucket rate
// limit so large rebuilds stay under provider quotas.
package limited

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultBurst is used when Config.Burst is not positive.
const DefaultBurst = 1

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate. Zero or less
	// disables limiting.
	RequestsPerSecond float64

	// Burst is the maximum number of requests allowed at once.
	Burst int
}

// EmbeddingService delays calls to the wrapped service so that at most
// RequestsPerSecond requests are made. Each EmbedBatch call counts as one
// request regardless of its size.
type EmbeddingService struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap returns next unchanged when cfg disables limiting.
func Wrap(next driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if next == nil || cfg.RequestsPerSecond <= 0 {
		return next
	}
	return New(next, cfg)
}

// New creates a rate-limited embedding service.
func New(next driven.EmbeddingService, cfg Config) *EmbeddingService {
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &EmbeddingService{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return s.next.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return s.next.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping is not rate limited.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.next.Close() }
