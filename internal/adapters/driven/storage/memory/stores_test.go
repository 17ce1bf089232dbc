package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

func TestCorpusStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()

	phrases, err := store.Load(ctx, domain.DomainHazard)
	require.NoError(t, err)
	assert.Empty(t, phrases)

	require.NoError(t, store.Append(ctx, domain.DomainHazard, "  Slippery floor "))
	require.NoError(t, store.Append(ctx, domain.DomainHazard, "Falling objects"))

	phrases, err = store.Load(ctx, domain.DomainHazard)
	require.NoError(t, err)
	assert.Equal(t, []string{"Slippery floor", "Falling objects"}, phrases)

	other, err := store.Load(ctx, domain.DomainControl)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCorpusStore_RejectsBlank(t *testing.T) {
	store := NewCorpusStore()
	err := store.Append(context.Background(), domain.DomainActivity, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCorpusStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore()
	require.NoError(t, store.Append(ctx, domain.DomainActivity, "a"))

	phrases, _ := store.Load(ctx, domain.DomainActivity)
	phrases[0] = "mutated"

	again, _ := store.Load(ctx, domain.DomainActivity)
	assert.Equal(t, []string{"a"}, again)
}

func TestEmbeddingCache_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	cache := NewEmbeddingCache()

	_, found, err := cache.Load(ctx, domain.DomainInjury)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Save(ctx, domain.DomainInjury,
		driven.CachedEmbeddings{Model: "m1", Vectors: [][]float32{{1, 2}, {3, 4}}}))

	cached, found, err := cache.Load(ctx, domain.DomainInjury)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "m1", cached.Model)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, cached.Vectors)
	assert.Equal(t, 1, cache.Saves())

	require.NoError(t, cache.Save(ctx, domain.DomainInjury, driven.CachedEmbeddings{Model: "m2"}))
	cached, found, _ = cache.Load(ctx, domain.DomainInjury)
	assert.True(t, found)
	assert.Empty(t, cached.Vectors)
	assert.Equal(t, "m2", cached.Model)
}

func TestKnownDataStore(t *testing.T) {
	ctx := context.Background()
	store := NewKnownDataStore()

	first := domain.KnownData{Title: "Kitchen", Process: "Cooking", ActivityName: "Frying"}
	second := domain.KnownData{Title: "KITCHEN", Process: "cooking", ActivityName: "Boiling"}
	third := domain.KnownData{Title: "Office", Process: "Filing", ActivityName: "Frying"}

	for _, r := range []*domain.KnownData{&first, &second, &third} {
		require.NoError(t, store.Save(ctx, r))
	}
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(3), third.ID)
	assert.False(t, first.CreatedAt.IsZero())

	byActivity, err := store.FindByActivity(ctx, "Frying")
	require.NoError(t, err)
	assert.Len(t, byActivity, 2)

	byTP, err := store.FindByTitleProcess(ctx, "kitchen", "COOKING")
	require.NoError(t, err)
	assert.Len(t, byTP, 2)

	list, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	school := domain.KnownData{Title: "ÉCOLE", Process: "Nettoyage", ActivityName: "Sweeping"}
	require.NoError(t, store.Save(ctx, &school))
	byUnicode, err := store.FindByTitleProcess(ctx, "école", "NETTOYAGE")
	require.NoError(t, err)
	require.Len(t, byUnicode, 1)
	assert.Equal(t, school.ID, byUnicode[0].ID)
}

func TestKnownDataStore_FailSaves(t *testing.T) {
	store := NewKnownDataStore()
	boom := errors.New("disk full")
	store.FailSaves(boom)

	err := store.Save(context.Background(), &domain.KnownData{ActivityName: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestHazardStore(t *testing.T) {
	ctx := context.Background()
	store := NewHazardStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, &domain.PendingHazard{ID: "b", Status: domain.HazardStatusPending, SubmittedAt: base.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, &domain.PendingHazard{ID: "a", Status: domain.HazardStatusPending, SubmittedAt: base}))

	pending, err := store.ListByStatus(ctx, domain.HazardStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)

	require.NoError(t, store.UpdateStatus(ctx, "a", domain.HazardStatusApproved))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.HazardStatusApproved, got.Status)
	assert.NotNil(t, got.ReviewedAt)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.UpdateStatus(ctx, "missing", domain.HazardStatusRejected), domain.ErrNotFound)
}
