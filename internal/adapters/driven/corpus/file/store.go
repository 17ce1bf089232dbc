// Package file stores knowledge-base corpora as delimited text files,
// one file per domain, and watches them for external edits.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// File and directory modes for corpus data.
const (
	fileMode = 0600
	dirMode  = 0700
)

// CorpusStore keeps each domain's phrases in <dir>/<domain>.txt.
type CorpusStore struct {
	mu  sync.Mutex
	dir string
}

// NewCorpusStore creates a corpus store rooted at dir, creating it if needed.
func NewCorpusStore(dir string) (*CorpusStore, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("create corpus directory: %w", err)
	}
	return &CorpusStore{dir: dir}, nil
}

// Dir returns the corpus directory.
func (s *CorpusStore) Dir() string {
	return s.dir
}

// Path returns the file backing domain d.
func (s *CorpusStore) Path(d domain.KnowledgeDomain) string {
	return filepath.Join(s.dir, FileName(d))
}

// FileName returns the corpus file name for d.
func FileName(d domain.KnowledgeDomain) string {
	return string(d) + ".txt"
}

// Load returns the domain's phrases in file order.
func (s *CorpusStore) Load(_ context.Context, d domain.KnowledgeDomain) ([]string, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: unknown domain %q", domain.ErrInvalidInput, d)
	}

	raw, err := os.ReadFile(s.Path(d))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s corpus: %w", d, err)
	}
	return decodeCorpus(string(raw)), nil
}

// Append writes the delimiter and the encoded phrase at the end of the
// domain's file. Existing bytes are never rewritten. The leading
// delimiter is skipped for an empty file. A file ending in "&" or a
// backslash gets a space before the delimiter so its last phrase keeps
// its text.
func (s *CorpusStore) Append(_ context.Context, d domain.KnowledgeDomain, phrase string) error {
	if !d.IsValid() {
		return fmt.Errorf("%w: unknown domain %q", domain.ErrInvalidInput, d)
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return fmt.Errorf("%w: blank phrase", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(d), os.O_CREATE|os.O_RDWR|os.O_APPEND, fileMode)
	if err != nil {
		return fmt.Errorf("open %s corpus: %w", d, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s corpus: %w", d, err)
	}

	entry := encodePhrase(phrase)
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return fmt.Errorf("read %s corpus: %w", d, err)
		}
		entry = Delimiter + entry
		if needsSeparator(last[0]) {
			entry = " " + entry
		}
	}
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append to %s corpus: %w", d, err)
	}
	return f.Sync()
}
