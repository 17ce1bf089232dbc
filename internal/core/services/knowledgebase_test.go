package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/riskmatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

type kbFixture struct {
	corpus   *memory.CorpusStore
	cache    *memory.EmbeddingCache
	embedder *mockEmbeddingService
	kb       *KnowledgeBase
}

func newKBFixture(t *testing.T, seed map[domain.KnowledgeDomain][]string) *kbFixture {
	t.Helper()
	f := &kbFixture{
		corpus:   memory.NewCorpusStore(),
		cache:    memory.NewEmbeddingCache(),
		embedder: &mockEmbeddingService{},
	}
	for d, phrases := range seed {
		for _, p := range phrases {
			require.NoError(t, f.corpus.Append(context.Background(), d, p))
		}
	}
	f.kb = NewKnowledgeBase(f.corpus, f.cache, f.embedder, 2)
	return f
}

func TestKnowledgeBase_LoadOrBuild_BuildsOnce(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainHazard: {"slippery floor", "falling objects", "loud noise"},
	})

	phrases, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainHazard)
	require.NoError(t, err)
	assert.Len(t, phrases, 3)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 2, f.embedder.batchCalls(), "batch size 2 means two requests")
	assert.Equal(t, 1, f.cache.Saves())

	_, _, err = f.kb.LoadOrBuild(ctx, domain.DomainHazard)
	require.NoError(t, err)
	assert.Equal(t, 2, f.embedder.batchCalls(), "second load must use the cache")
	assert.Equal(t, 1, f.cache.Saves())
}

func TestKnowledgeBase_LoadOrBuild_EmptyCorpus(t *testing.T) {
	f := newKBFixture(t, nil)

	phrases, vectors, err := f.kb.LoadOrBuild(context.Background(), domain.DomainInjury)
	require.NoError(t, err)
	assert.Empty(t, phrases)
	assert.Empty(t, vectors)
	assert.Zero(t, f.embedder.batchCalls())
}

func TestKnowledgeBase_LoadOrBuild_DetectsMismatch(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainControl: {"guard rails"},
	})
	_, _, err := f.kb.LoadOrBuild(ctx, domain.DomainControl)
	require.NoError(t, err)

	// An append without a rebuild leaves the cache one short.
	require.NoError(t, f.corpus.Append(ctx, domain.DomainControl, "hard hats"))

	_, _, err = f.kb.LoadOrBuild(ctx, domain.DomainControl)
	assert.ErrorIs(t, err, domain.ErrCacheMismatch)

	require.NoError(t, f.kb.Reembed(ctx, domain.DomainControl))
	phrases, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainControl)
	require.NoError(t, err)
	assert.Len(t, vectors, len(phrases))
}

func TestKnowledgeBase_Rebuild_AlignsWithCorpus(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainActivity: {"welding", "grinding", "painting", "sanding", "drilling"},
	})

	phrases, vectors, err := f.kb.Rebuild(ctx, domain.DomainActivity)
	require.NoError(t, err)
	require.Len(t, vectors, len(phrases))

	for i, p := range phrases {
		want, _ := f.embedder.Embed(ctx, p)
		assert.Equal(t, want, vectors[i], "embedding %d must belong to %q", i, p)
	}
}

func TestKnowledgeBase_Rebuild_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainHazard: {"hot surfaces", "sharp edges"},
	})

	_, first, err := f.kb.Rebuild(ctx, domain.DomainHazard)
	require.NoError(t, err)
	_, second, err := f.kb.Rebuild(ctx, domain.DomainHazard)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	cached, found, err := f.cache.Load(ctx, domain.DomainHazard)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, second, cached.Vectors)
	assert.Equal(t, "mock-embed", cached.Model)
}

func TestKnowledgeBase_AppendAndRebuild(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainInjury: {"burns"},
	})

	before, err := f.corpus.Load(ctx, domain.DomainInjury)
	require.NoError(t, err)

	require.NoError(t, f.kb.AppendAndRebuild(ctx, domain.DomainInjury, "  cuts "))

	after, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainInjury)
	require.NoError(t, err)
	assert.Equal(t, append(before, "cuts"), after)
	assert.Len(t, vectors, len(after))
}

func TestKnowledgeBase_AppendMany_RebuildsOnce(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, nil)

	require.NoError(t, f.kb.AppendMany(ctx, domain.DomainControl, []string{"gloves", " ", "goggles", "guarding"}))

	// Three phrases in batches of two: one rebuild, two batch calls.
	assert.Equal(t, 2, f.embedder.batchCalls())

	phrases, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainControl)
	require.NoError(t, err)
	assert.Equal(t, []string{"gloves", "goggles", "guarding"}, phrases)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 2, f.embedder.batchCalls())
}

func TestKnowledgeBase_AppendMany_NothingToAdd(t *testing.T) {
	f := newKBFixture(t, nil)

	require.NoError(t, f.kb.AppendMany(context.Background(), domain.DomainControl, []string{"", "  "}))
	assert.Zero(t, f.embedder.batchCalls())

	err := f.kb.AppendMany(context.Background(), "bogus", []string{"x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKnowledgeBase_AppendAndRebuild_Validation(t *testing.T) {
	f := newKBFixture(t, nil)

	err := f.kb.AppendAndRebuild(context.Background(), domain.DomainInjury, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.kb.AppendAndRebuild(context.Background(), domain.KnowledgeDomain("tools"), "hammer")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKnowledgeBase_AppendAndRebuild_RebuildFailureKeepsPhrase(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, nil)
	boom := errors.New("provider down")
	f.embedder.batchErr = boom

	err := f.kb.AppendAndRebuild(ctx, domain.DomainHazard, "confined spaces")
	require.ErrorIs(t, err, boom)

	phrases, _ := f.corpus.Load(ctx, domain.DomainHazard)
	assert.Equal(t, []string{"confined spaces"}, phrases)
}

func TestKnowledgeBase_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, f.kb.AppendAndRebuild(ctx, domain.DomainActivity, string(rune('a'+n))))
		}(i)
	}
	wg.Wait()

	phrases, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainActivity)
	require.NoError(t, err)
	assert.Len(t, phrases, 10)
	assert.Len(t, vectors, 10)
}

func TestKnowledgeBase_ReembedAllAndStats(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainActivity: {"a", "b"},
		domain.DomainHazard:   {"c"},
	})

	stats, err := f.kb.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, len(domain.AllKnowledgeDomains()))
	assert.False(t, stats[0].CacheExists)
	assert.False(t, stats[0].InSync())

	require.NoError(t, f.kb.ReembedAll(ctx))

	stats, err = f.kb.Stats(ctx)
	require.NoError(t, err)
	for _, s := range stats {
		assert.True(t, s.InSync(), "domain %s", s.Domain)
	}
	assert.Equal(t, 2, stats[0].Phrases)
	assert.Equal(t, 1, stats[1].Embeddings)
}

func TestKnowledgeBase_NoEmbedder(t *testing.T) {
	kb := NewKnowledgeBase(memory.NewCorpusStore(), memory.NewEmbeddingCache(), nil, 0)
	require.NoError(t, kb.corpus.Append(context.Background(), domain.DomainHazard, "x"))

	_, _, err := kb.Rebuild(context.Background(), domain.DomainHazard)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestKnowledgeBase_LoadOrBuild_RebuildsAfterModelChange(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainActivity: {"switch on the machine", "clean the blades"},
	})
	require.NoError(t, f.cache.Save(ctx, domain.DomainActivity, driven.CachedEmbeddings{
		Model:   "all-minilm",
		Vectors: [][]float32{{1, 0, 0}, {0, 1, 0}},
	}))

	stats, err := f.kb.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats[0].ModelChanged)
	assert.Equal(t, "all-minilm", stats[0].Model)
	assert.False(t, stats[0].InSync())

	phrases, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainActivity)
	require.NoError(t, err)
	require.Len(t, vectors, len(phrases))
	assert.Len(t, vectors[0], mockDims)
	assert.Equal(t, 2, f.cache.Saves())

	cached, _, err := f.cache.Load(ctx, domain.DomainActivity)
	require.NoError(t, err)
	assert.Equal(t, "mock-embed", cached.Model)
}

func TestKnowledgeBase_LoadOrBuild_UnrecordedModelRebuilds(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainHazard: {"noise"},
	})
	require.NoError(t, f.cache.Save(ctx, domain.DomainHazard, driven.CachedEmbeddings{
		Vectors: [][]float32{{1, 0}},
	}))

	_, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainHazard)
	require.NoError(t, err)
	assert.Len(t, vectors[0], mockDims)
}

func TestKnowledgeBase_LoadOrBuild_NoEmbedderKeepsCache(t *testing.T) {
	ctx := context.Background()
	corpus := memory.NewCorpusStore()
	cache := memory.NewEmbeddingCache()
	require.NoError(t, corpus.Append(ctx, domain.DomainHazard, "noise"))
	require.NoError(t, cache.Save(ctx, domain.DomainHazard, driven.CachedEmbeddings{
		Model: "all-minilm", Vectors: [][]float32{{1, 0}},
	}))
	kb := NewKnowledgeBase(corpus, cache, nil, 0)

	_, vectors, err := kb.LoadOrBuild(ctx, domain.DomainHazard)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}}, vectors)
}

func TestKnowledgeBase_ReadersNeverSeeHalfWrittenDomain(t *testing.T) {
	ctx := context.Background()
	f := newKBFixture(t, map[domain.KnowledgeDomain][]string{
		domain.DomainActivity: {"seed"},
	})
	_, _, err := f.kb.LoadOrBuild(ctx, domain.DomainActivity)
	require.NoError(t, err)

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				phrases, vectors, err := f.kb.LoadOrBuild(ctx, domain.DomainActivity)
				if !assert.NoError(t, err) {
					return
				}
				assert.Len(t, vectors, len(phrases))
			}
		}()
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, f.kb.AppendAndRebuild(ctx, domain.DomainActivity, string(rune('a'+i))))
	}
	close(stop)
	readers.Wait()
}
