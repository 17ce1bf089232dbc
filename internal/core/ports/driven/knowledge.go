package driven

import (
	"context"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// CorpusStore persists the ordered phrase list of each knowledge domain.
// The corpus is the source of truth; embeddings are derived from it.
type CorpusStore interface {
	// Load returns the domain's phrases in stored order.
	// Empty segments are skipped. A corpus that was never written
	// loads as an empty slice, not an error.
	Load(ctx context.Context, d domain.KnowledgeDomain) ([]string, error)

	// Append adds one trimmed phrase to the end of the domain's corpus
	// without touching existing entries. Blank phrases are rejected
	// with domain.ErrInvalidInput.
	Append(ctx context.Context, d domain.KnowledgeDomain, phrase string) error
}

// CachedEmbeddings is one domain's persisted embeddings.
// The cache is positional: Vectors[i] belongs to phrase i.
type CachedEmbeddings struct {
	// Model names the embedding model that produced Vectors.
	// Empty for caches written before the model was recorded.
	Model   string
	Vectors [][]float32
}

// EmbeddingCache persists one embedding per corpus phrase, in corpus order.
type EmbeddingCache interface {
	// Load returns the cached embeddings. found is false when no cache
	// has been written for the domain yet.
	Load(ctx context.Context, d domain.KnowledgeDomain) (cached CachedEmbeddings, found bool, err error)

	// Save replaces the domain's cache.
	Save(ctx context.Context, d domain.KnowledgeDomain, cached CachedEmbeddings) error
}

// CorpusChange reports that a domain's corpus changed outside this process.
type CorpusChange struct {
	Domain domain.KnowledgeDomain
	Path   string
}

// CorpusWatcher observes corpus storage for external edits.
type CorpusWatcher interface {
	// Watch blocks until ctx is cancelled, sending one change per write.
	Watch(ctx context.Context, changes chan<- CorpusChange) error
}
