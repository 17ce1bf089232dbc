package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/riskmatch/internal/adapters/driven/storage/fold"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure KnownDataStore implements the interface.
var _ driven.KnownDataStore = (*KnownDataStore)(nil)

// KnownDataStore is an in-memory implementation of driven.KnownDataStore.
type KnownDataStore struct {
	mu      sync.RWMutex
	records []domain.KnownData
	nextID  int64
	saveErr error
}

// NewKnownDataStore creates a new in-memory known data store.
func NewKnownDataStore() *KnownDataStore {
	return &KnownDataStore{nextID: 1}
}

// FailSaves makes every subsequent Save return err. Used by tests.
func (s *KnownDataStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Save appends a record, assigning its ID and creation time.
func (s *KnownDataStore) Save(_ context.Context, record *domain.KnownData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	record.ID = s.nextID
	s.nextID++
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	s.records = append(s.records, *record)
	return nil
}

// FindByActivity returns records with exactly this activity name.
func (s *KnownDataStore) FindByActivity(_ context.Context, name string) ([]domain.KnownData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.KnownData
	for _, r := range s.records {
		if r.ActivityName == name {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindByTitleProcess returns records whose title and process have the
// same fold.Key as the arguments.
func (s *KnownDataStore) FindByTitleProcess(_ context.Context, title, process string) ([]domain.KnownData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titleKey, processKey := fold.Key(title), fold.Key(process)
	var out []domain.KnownData
	for _, r := range s.records {
		if fold.Key(r.Title) == titleKey && fold.Key(r.Process) == processKey {
			out = append(out, r)
		}
	}
	return out, nil
}

// List returns records newest first.
func (s *KnownDataStore) List(_ context.Context, limit int) ([]domain.KnownData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.KnownData, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.records[i])
	}
	return out, nil
}

// Count returns the number of records.
func (s *KnownDataStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
