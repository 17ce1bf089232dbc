// Package file persists embedding caches as compact binary files, one
// per knowledge domain.
//
// Layout (little endian):
//
//	magic    [4]byte  "RMEC"
//	version  uint32   2
//	count    uint32   number of vectors
//	dims     uint32   length of every vector
//	modelLen uint32   length of the model name
//	model    [modelLen]byte
//	data     count*dims float32
//
// Version 1 files have no model fields and load with an empty model.
package file

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

const (
	magic         = "RMEC"
	version       = uint32(2)
	legacyVersion = uint32(1)
	headerSize    = 16
	maxModelLen   = 1024
	fileMode      = 0600
	dirMode       = 0700
)

// Cache stores each domain's vectors in <dir>/<domain>.emb.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Path returns the cache file for d.
func (c *Cache) Path(d domain.KnowledgeDomain) string {
	return filepath.Join(c.dir, string(d)+".emb")
}

// Load reads the domain's cache. found is false if no cache file exists.
func (c *Cache) Load(_ context.Context, d domain.KnowledgeDomain) (driven.CachedEmbeddings, bool, error) {
	f, err := os.Open(c.Path(d))
	if errors.Is(err, os.ErrNotExist) {
		return driven.CachedEmbeddings{}, false, nil
	}
	if err != nil {
		return driven.CachedEmbeddings{}, false, fmt.Errorf("open %s cache: %w", d, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return driven.CachedEmbeddings{}, false, fmt.Errorf("stat %s cache: %w", d, err)
	}

	cached, err := decode(bufio.NewReader(f), info.Size())
	if err != nil {
		return driven.CachedEmbeddings{}, false, fmt.Errorf("%s cache: %w", d, err)
	}
	return cached, true, nil
}

// Save atomically replaces the domain's cache: the vectors are written
// to a temp file in the same directory which is then renamed.
func (c *Cache) Save(_ context.Context, d domain.KnowledgeDomain, cached driven.CachedEmbeddings) error {
	tmp, err := os.CreateTemp(c.dir, "."+string(d)+"-*.emb")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	if err := encode(w, cached); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s cache: %w", d, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s cache: %w", d, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s cache: %w", d, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s cache: %w", d, err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("chmod %s cache: %w", d, err)
	}
	if err := os.Rename(tmpName, c.Path(d)); err != nil {
		return fmt.Errorf("replace %s cache: %w", d, err)
	}
	return nil
}

func encode(w io.Writer, cached driven.CachedEmbeddings) error {
	vectors := cached.Vectors
	if len(cached.Model) > maxModelLen {
		return fmt.Errorf("model name longer than %d bytes", maxModelLen)
	}
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), dims)
		}
	}

	header := make([]byte, headerSize+4)
	copy(header, magic)
	binary.LittleEndian.PutUint32(header[4:], version)
	binary.LittleEndian.PutUint32(header[8:], uint32(len(vectors)))
	binary.LittleEndian.PutUint32(header[12:], uint32(dims))
	binary.LittleEndian.PutUint32(header[16:], uint32(len(cached.Model)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := io.WriteString(w, cached.Model); err != nil {
		return err
	}

	buf := make([]byte, 4*dims)
	for _, v := range vectors {
		for j, x := range v {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(x))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func decode(r io.Reader, size int64) (driven.CachedEmbeddings, error) {
	var none driven.CachedEmbeddings

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return none, fmt.Errorf("%w: short header", domain.ErrCacheCorrupt)
	}
	if string(header[:4]) != magic {
		return none, fmt.Errorf("%w: bad magic %q", domain.ErrCacheCorrupt, header[:4])
	}

	count := int64(binary.LittleEndian.Uint32(header[8:]))
	dims := int64(binary.LittleEndian.Uint32(header[12:]))
	prefix := int64(headerSize)

	var model string
	switch v := binary.LittleEndian.Uint32(header[4:]); v {
	case legacyVersion:
	case version:
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return none, fmt.Errorf("%w: short header", domain.ErrCacheCorrupt)
		}
		n := int64(binary.LittleEndian.Uint32(lenBuf))
		if n > maxModelLen {
			return none, fmt.Errorf("%w: model name of %d bytes", domain.ErrCacheCorrupt, n)
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(r, name); err != nil {
			return none, fmt.Errorf("%w: truncated model name", domain.ErrCacheCorrupt)
		}
		model = string(name)
		prefix += 4 + n
	default:
		return none, fmt.Errorf("%w: unsupported version %d", domain.ErrCacheCorrupt, v)
	}

	if want := prefix + count*dims*4; size >= 0 && size != want {
		return none, fmt.Errorf("%w: size %d, header implies %d", domain.ErrCacheCorrupt, size, want)
	}

	vectors := make([][]float32, count)
	buf := make([]byte, 4*dims)
	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return none, fmt.Errorf("%w: truncated at vector %d", domain.ErrCacheCorrupt, i)
		}
		v := make([]float32, dims)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
		vectors[i] = v
	}
	return driven.CachedEmbeddings{Model: model, Vectors: vectors}, nil
}
