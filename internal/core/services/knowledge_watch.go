package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// DefaultWatchQuietPeriod is how long a domain must go without further
// corpus writes before it is rebuilt.
const DefaultWatchQuietPeriod = 500 * time.Millisecond

// errNoWatcher is returned by Watch when no corpus watcher was configured.
var errNoWatcher = errors.New("knowledge base: corpus watching is not configured")

// SetWatcher enables Watch. quiet <= 0 uses DefaultWatchQuietPeriod.
func (kb *KnowledgeBase) SetWatcher(w driven.CorpusWatcher, quiet time.Duration) {
	if quiet <= 0 {
		quiet = DefaultWatchQuietPeriod
	}
	kb.watcher = w
	kb.quiet = quiet
}

// Watch rebuilds a domain whenever its corpus is edited outside the
// knowledge base. Bursts of writes to one domain collapse into a single
// rebuild once the domain has been quiet for the configured period.
// Writes made by this knowledge base's own append and rebuild calls are
// skipped when they land within the quiet period of that rebuild and the
// cache still covers every phrase. Rebuild failures are reported to
// onRebuild and do not stop the watch.
func (kb *KnowledgeBase) Watch(ctx context.Context, onRebuild func(driving.RebuildEvent)) error {
	if kb.watcher == nil {
		return errNoWatcher
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan driven.CorpusChange, 16)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- kb.watcher.Watch(ctx, changes)
	}()

	dirty := make(map[domain.KnowledgeDomain]time.Time)
	ticker := time.NewTicker(kb.quiet / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err != nil {
				return fmt.Errorf("knowledge base: watch: %w", err)
			}
			return nil
		case change := <-changes:
			logger.Debug("knowledge base: %s corpus changed (%s)", change.Domain, change.Path)
			dirty[change.Domain] = time.Now()
		case now := <-ticker.C:
			for _, d := range domain.AllKnowledgeDomains() {
				last, ok := dirty[d]
				if !ok || now.Sub(last) < kb.quiet {
					continue
				}
				delete(dirty, d)

				if kb.coveredByRecentRebuild(ctx, d, last) {
					logger.Debug("knowledge base: %s change already embedded by the last rebuild", d)
					continue
				}

				start := time.Now()
				phrases, _, err := kb.Rebuild(ctx, d)
				event := driving.RebuildEvent{
					Domain:   d,
					Phrases:  len(phrases),
					Duration: time.Since(start),
					Err:      err,
				}
				if err != nil {
					logger.Warn("knowledge base: rebuild %s after edit: %v", d, err)
				}
				if onRebuild != nil {
					onRebuild(event)
				}
			}
		}
	}
}

// coveredByRecentRebuild reports whether a change seen at changedAt is the
// echo of this process's own rebuild of d: the rebuild read the corpus no
// more than one quiet period before the change arrived and its cache is
// still in sync with the corpus.
func (kb *KnowledgeBase) coveredByRecentRebuild(ctx context.Context, d domain.KnowledgeDomain, changedAt time.Time) bool {
	read, ok := kb.lastRebuildRead(d)
	if !ok || changedAt.Sub(read) >= kb.quiet {
		return false
	}
	stats, err := kb.domainStats(ctx, d)
	if err != nil {
		return false
	}
	return stats.InSync()
}
