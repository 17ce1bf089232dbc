package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// DomainStats summarises one knowledge base.
type DomainStats struct {
	Domain      domain.KnowledgeDomain `json:"domain"`
	Phrases     int                    `json:"phrases"`
	Embeddings  int                    `json:"embeddings"`
	CacheExists bool                   `json:"cache_exists"`
	// Model is the embedding model recorded in the cache.
	Model string `json:"model,omitempty"`
	// ModelChanged is set when the configured model differs from Model.
	ModelChanged bool `json:"model_changed,omitempty"`
}

// InSync reports whether the cache lines up with the corpus and was
// produced by the configured model.
func (s DomainStats) InSync() bool {
	return s.CacheExists && !s.ModelChanged && s.Phrases == s.Embeddings
}

// RebuildEvent reports one rebuild triggered by a corpus edit.
type RebuildEvent struct {
	Domain   domain.KnowledgeDomain
	Phrases  int
	Duration time.Duration
	Err      error
}

// KnowledgeService maintains the per-domain knowledge bases.
type KnowledgeService interface {
	// Reembed rebuilds one domain's embedding cache from its full corpus.
	// Safe to call repeatedly.
	Reembed(ctx context.Context, d domain.KnowledgeDomain) error

	// ReembedAll rebuilds every domain, stopping at the first failure.
	ReembedAll(ctx context.Context) error

	// Append adds a phrase to a domain and rebuilds its cache.
	Append(ctx context.Context, d domain.KnowledgeDomain, phrase string) error

	// Stats reports corpus and cache sizes for every domain.
	Stats(ctx context.Context) ([]DomainStats, error)

	// Watch rebuilds domains whose corpus files are edited externally,
	// until ctx is cancelled. onRebuild is called after every rebuild.
	Watch(ctx context.Context, onRebuild func(RebuildEvent)) error
}
