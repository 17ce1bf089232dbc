package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore is an in-memory implementation of driven.CorpusStore.
type CorpusStore struct {
	mu      sync.RWMutex
	phrases map[domain.KnowledgeDomain][]string
}

// NewCorpusStore creates a new in-memory corpus store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{
		phrases: make(map[domain.KnowledgeDomain][]string),
	}
}

// Load returns a copy of the domain's phrases.
func (s *CorpusStore) Load(_ context.Context, d domain.KnowledgeDomain) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.phrases[d]))
	copy(out, s.phrases[d])
	return out, nil
}

// Append adds a trimmed phrase to the end of the domain.
func (s *CorpusStore) Append(_ context.Context, d domain.KnowledgeDomain, phrase string) error {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return fmt.Errorf("%w: blank phrase", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phrases[d] = append(s.phrases[d], phrase)
	return nil
}
