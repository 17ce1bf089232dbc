package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.CorpusWatcher = (*Watcher)(nil)

// Watcher reports edits to corpus files made by other processes or by hand.
type Watcher struct {
	dir string
}

// NewWatcher creates a watcher for the corpus files in dir.
func NewWatcher(dir string) *Watcher {
	return &Watcher{dir: dir}
}

// Watch blocks until ctx is done, sending one change per create, write
// or rename of a corpus file. Sends never block past ctx.
func (w *Watcher) Watch(ctx context.Context, changes chan<- driven.CorpusChange) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Debug("watching corpus directory %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("corpus watcher: %v", err)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			change, ok := handleEvent(event)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// handleEvent maps a filesystem event to a corpus change. Events for
// other files, hidden files and chmod-only updates are ignored.
func handleEvent(event fsnotify.Event) (driven.CorpusChange, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return driven.CorpusChange{}, false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".txt") {
		return driven.CorpusChange{}, false
	}

	d := domain.KnowledgeDomain(strings.TrimSuffix(base, ".txt"))
	if !d.IsValid() {
		return driven.CorpusChange{}, false
	}
	return driven.CorpusChange{Domain: d, Path: event.Name}, true
}
