package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is an in-memory implementation of driven.EmbeddingCache.
type EmbeddingCache struct {
	mu      sync.RWMutex
	entries map[domain.KnowledgeDomain]driven.CachedEmbeddings
	saves   int
}

// NewEmbeddingCache creates a new in-memory embedding cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		entries: make(map[domain.KnowledgeDomain]driven.CachedEmbeddings),
	}
}

// Load returns the cached embeddings for the domain.
func (c *EmbeddingCache) Load(_ context.Context, d domain.KnowledgeDomain) (driven.CachedEmbeddings, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[d]
	if !ok {
		return driven.CachedEmbeddings{}, false, nil
	}
	return driven.CachedEmbeddings{Model: entry.Model, Vectors: cloneVectors(entry.Vectors)}, true, nil
}

// Save replaces the domain's embeddings.
func (c *EmbeddingCache) Save(_ context.Context, d domain.KnowledgeDomain, cached driven.CachedEmbeddings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[d] = driven.CachedEmbeddings{Model: cached.Model, Vectors: cloneVectors(cached.Vectors)}
	c.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (c *EmbeddingCache) Saves() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saves
}

func cloneVectors(vectors [][]float32) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = append([]float32(nil), v...)
	}
	return out
}
