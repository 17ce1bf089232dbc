package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure HazardStore implements the interface.
var _ driven.HazardStore = (*HazardStore)(nil)

// HazardStore is an in-memory implementation of driven.HazardStore.
type HazardStore struct {
	mu      sync.RWMutex
	hazards map[string]domain.PendingHazard
}

// NewHazardStore creates a new in-memory hazard store.
func NewHazardStore() *HazardStore {
	return &HazardStore{
		hazards: make(map[string]domain.PendingHazard),
	}
}

// Save stores or replaces a hazard.
func (s *HazardStore) Save(_ context.Context, hazard *domain.PendingHazard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hazards[hazard.ID] = *hazard
	return nil
}

// Get retrieves a hazard by ID.
func (s *HazardStore) Get(_ context.Context, id string) (*domain.PendingHazard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hazards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &h, nil
}

// ListByStatus returns hazards with the given status, oldest first.
func (s *HazardStore) ListByStatus(_ context.Context, status domain.HazardStatus) ([]domain.PendingHazard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PendingHazard, 0)
	for _, h := range s.hazards {
		if h.Status == status {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

// UpdateStatus sets a hazard's status and review time.
func (s *HazardStore) UpdateStatus(_ context.Context, id string, status domain.HazardStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hazards[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	h.Status = status
	h.ReviewedAt = &now
	s.hazards[id] = h
	return nil
}
