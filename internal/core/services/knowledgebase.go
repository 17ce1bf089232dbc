package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// Ensure KnowledgeBase implements the interface.
var _ driving.KnowledgeService = (*KnowledgeBase)(nil)

// KnowledgeBase keeps each domain's corpus and embedding cache in step.
//
// Each domain has a read-write lock. Writers hold it exclusively: an
// append and the rebuild that follows it run under the same lock, so
// concurrent approvals cannot interleave and readers never see a corpus
// ahead of its cache. Rebuilds always re-embed the whole corpus; cost
// grows linearly with corpus size.
type KnowledgeBase struct {
	corpus    driven.CorpusStore
	cache     driven.EmbeddingCache
	embedder  driven.EmbeddingService
	batchSize int

	mu     sync.Mutex
	locks  map[domain.KnowledgeDomain]*sync.RWMutex
	readAt map[domain.KnowledgeDomain]time.Time

	watcher driven.CorpusWatcher
	quiet   time.Duration
}

// NewKnowledgeBase creates a knowledge base over the given stores.
// A non-positive batchSize uses domain.DefaultBatchSize.
func NewKnowledgeBase(
	corpus driven.CorpusStore,
	cache driven.EmbeddingCache,
	embedder driven.EmbeddingService,
	batchSize int,
) *KnowledgeBase {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &KnowledgeBase{
		corpus:    corpus,
		cache:     cache,
		embedder:  embedder,
		batchSize: batchSize,
		locks:     make(map[domain.KnowledgeDomain]*sync.RWMutex),
		readAt:    make(map[domain.KnowledgeDomain]time.Time),
	}
}

func (kb *KnowledgeBase) lock(d domain.KnowledgeDomain) *sync.RWMutex {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	l, ok := kb.locks[d]
	if !ok {
		l = &sync.RWMutex{}
		kb.locks[d] = l
	}
	return l
}

// lastRebuildRead returns when the latest rebuild of d read its corpus.
func (kb *KnowledgeBase) lastRebuildRead(d domain.KnowledgeDomain) (time.Time, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	t, ok := kb.readAt[d]
	return t, ok
}

// modelChanged reports whether cached was produced by a different
// embedding model than the one configured now.
func (kb *KnowledgeBase) modelChanged(cached driven.CachedEmbeddings) bool {
	return kb.embedder != nil && cached.Model != kb.embedder.ModelName()
}

// LoadOrBuild returns the domain's corpus and aligned embeddings.
// A missing cache, or one written by a different embedding model, is
// rebuilt from the full corpus and persisted before returning. A cache
// whose length disagrees with the corpus is reported as
// domain.ErrCacheMismatch rather than used.
func (kb *KnowledgeBase) LoadOrBuild(
	ctx context.Context, d domain.KnowledgeDomain,
) ([]string, [][]float32, error) {
	if !d.IsValid() {
		return nil, nil, fmt.Errorf("knowledge base: %w: domain %q", domain.ErrInvalidInput, d)
	}

	l := kb.lock(d)
	l.RLock()
	phrases, cached, found, err := kb.load(ctx, d)
	l.RUnlock()
	if err != nil {
		return nil, nil, err
	}
	if found && !kb.modelChanged(cached) {
		return kb.fromCache(d, phrases, cached)
	}

	l.Lock()
	defer l.Unlock()

	// Another caller may have rebuilt while we waited.
	phrases, cached, found, err = kb.load(ctx, d)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case !found:
		logger.Info("Building %s embeddings (%d phrases)...", d, len(phrases))
	case kb.modelChanged(cached):
		logger.Info("Embedding model changed for %s (%q to %q), rebuilding %d phrases...",
			d, cached.Model, kb.embedder.ModelName(), len(phrases))
	default:
		return kb.fromCache(d, phrases, cached)
	}
	return kb.rebuildLocked(ctx, d)
}

func (kb *KnowledgeBase) load(
	ctx context.Context, d domain.KnowledgeDomain,
) ([]string, driven.CachedEmbeddings, bool, error) {
	phrases, err := kb.corpus.Load(ctx, d)
	if err != nil {
		return nil, driven.CachedEmbeddings{}, false, fmt.Errorf("knowledge base: load %s corpus: %w", d, err)
	}
	cached, found, err := kb.cache.Load(ctx, d)
	if err != nil {
		return nil, driven.CachedEmbeddings{}, false, fmt.Errorf("knowledge base: load %s cache: %w", d, err)
	}
	return phrases, cached, found, nil
}

func (kb *KnowledgeBase) fromCache(
	d domain.KnowledgeDomain, phrases []string, cached driven.CachedEmbeddings,
) ([]string, [][]float32, error) {
	if len(cached.Vectors) != len(phrases) {
		return nil, nil, fmt.Errorf("knowledge base: %s: %w (%d phrases, %d embeddings)",
			d, domain.ErrCacheMismatch, len(phrases), len(cached.Vectors))
	}
	logger.Debug("knowledge base: loaded %d cached embeddings for %s", len(cached.Vectors), d)
	return phrases, cached.Vectors, nil
}

// Rebuild re-embeds the entire current corpus and overwrites the cache.
func (kb *KnowledgeBase) Rebuild(
	ctx context.Context, d domain.KnowledgeDomain,
) ([]string, [][]float32, error) {
	if !d.IsValid() {
		return nil, nil, fmt.Errorf("knowledge base: %w: domain %q", domain.ErrInvalidInput, d)
	}

	l := kb.lock(d)
	l.Lock()
	defer l.Unlock()

	return kb.rebuildLocked(ctx, d)
}

// rebuildLocked must be called with the domain's write lock held.
func (kb *KnowledgeBase) rebuildLocked(
	ctx context.Context, d domain.KnowledgeDomain,
) ([]string, [][]float32, error) {
	readAt := time.Now()
	phrases, err := kb.corpus.Load(ctx, d)
	if err != nil {
		return nil, nil, fmt.Errorf("knowledge base: load %s corpus: %w", d, err)
	}

	defer logger.Timed("knowledge base: rebuild %s", d)()

	cached := driven.CachedEmbeddings{Vectors: [][]float32{}}
	if kb.embedder != nil {
		cached.Model = kb.embedder.ModelName()
	}
	if len(phrases) > 0 {
		if kb.embedder == nil {
			return nil, nil, domain.ErrEmbeddingUnavailable
		}
		cached.Vectors, err = EmbedMany(ctx, kb.embedder, phrases, kb.batchSize)
		if err != nil {
			return nil, nil, fmt.Errorf("knowledge base: embed %s: %w", d, err)
		}
	}

	if err := kb.cache.Save(ctx, d, cached); err != nil {
		return nil, nil, fmt.Errorf("knowledge base: save %s cache: %w", d, err)
	}

	kb.mu.Lock()
	kb.readAt[d] = readAt
	kb.mu.Unlock()

	logger.Debug("knowledge base: rebuilt %s with %d embeddings", d, len(cached.Vectors))
	return phrases, cached.Vectors, nil
}

// AppendAndRebuild appends phrase to the domain and rebuilds its cache
// under the domain's write lock. If the append succeeds but the rebuild
// fails, the corpus keeps the new phrase and the cache is stale until
// the next successful rebuild.
func (kb *KnowledgeBase) AppendAndRebuild(ctx context.Context, d domain.KnowledgeDomain, phrase string) error {
	if !d.IsValid() {
		return fmt.Errorf("knowledge base: %w: domain %q", domain.ErrInvalidInput, d)
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return fmt.Errorf("knowledge base: %w: blank phrase", domain.ErrInvalidInput)
	}

	l := kb.lock(d)
	l.Lock()
	defer l.Unlock()

	if err := kb.corpus.Append(ctx, d, phrase); err != nil {
		return fmt.Errorf("knowledge base: append to %s: %w", d, err)
	}
	logger.Debug("knowledge base: appended %q to %s", phrase, d)

	if _, _, err := kb.rebuildLocked(ctx, d); err != nil {
		return err
	}
	return nil
}

// AppendMany appends every non-blank phrase to the domain and rebuilds
// its cache once. Used for bulk imports where a rebuild per phrase
// would re-embed the corpus many times over.
func (kb *KnowledgeBase) AppendMany(ctx context.Context, d domain.KnowledgeDomain, phrases []string) error {
	if !d.IsValid() {
		return fmt.Errorf("knowledge base: %w: domain %q", domain.ErrInvalidInput, d)
	}

	l := kb.lock(d)
	l.Lock()
	defer l.Unlock()

	added := 0
	for _, phrase := range phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		if err := kb.corpus.Append(ctx, d, phrase); err != nil {
			return fmt.Errorf("knowledge base: append to %s: %w", d, err)
		}
		added++
	}
	if added == 0 {
		return nil
	}
	logger.Debug("knowledge base: appended %d phrases to %s", added, d)

	_, _, err := kb.rebuildLocked(ctx, d)
	return err
}

// Reembed rebuilds one domain. It is the per-domain maintenance trigger.
func (kb *KnowledgeBase) Reembed(ctx context.Context, d domain.KnowledgeDomain) error {
	logger.Info("Reembedding %s knowledge base...", d)
	_, _, err := kb.Rebuild(ctx, d)
	return err
}

// ReembedAll rebuilds every domain in maintenance order.
func (kb *KnowledgeBase) ReembedAll(ctx context.Context) error {
	for _, d := range domain.AllKnowledgeDomains() {
		if err := kb.Reembed(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Append implements driving.KnowledgeService.
func (kb *KnowledgeBase) Append(ctx context.Context, d domain.KnowledgeDomain, phrase string) error {
	return kb.AppendAndRebuild(ctx, d, phrase)
}

// Stats reports corpus and cache sizes for every domain.
func (kb *KnowledgeBase) Stats(ctx context.Context) ([]driving.DomainStats, error) {
	stats := make([]driving.DomainStats, 0, len(domain.AllKnowledgeDomains()))
	for _, d := range domain.AllKnowledgeDomains() {
		st, err := kb.domainStats(ctx, d)
		if err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func (kb *KnowledgeBase) domainStats(ctx context.Context, d domain.KnowledgeDomain) (driving.DomainStats, error) {
	l := kb.lock(d)
	l.RLock()
	defer l.RUnlock()

	phrases, err := kb.corpus.Load(ctx, d)
	if err != nil {
		return driving.DomainStats{}, fmt.Errorf("knowledge base: load %s corpus: %w", d, err)
	}

	cached, found, err := kb.cache.Load(ctx, d)
	if err != nil && !errors.Is(err, domain.ErrCacheCorrupt) {
		return driving.DomainStats{}, fmt.Errorf("knowledge base: load %s cache: %w", d, err)
	}

	exists := found && err == nil
	return driving.DomainStats{
		Domain:       d,
		Phrases:      len(phrases),
		Embeddings:   len(cached.Vectors),
		CacheExists:  exists,
		Model:        cached.Model,
		ModelChanged: exists && kb.modelChanged(cached),
	}, nil
}
