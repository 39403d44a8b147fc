// Package loader memoizes dataset decoding so that re-uploading the same file
// does not parse it again.
package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mamadbah2/dairy-dashboard/internal/dataset"
	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

const defaultMaxEntries = 32

// DecodeFunc turns an uploaded file into a typed table.
type DecodeFunc func(kind models.DatasetKind, filename string, r io.Reader) (models.Table, error)

// Option customizes a Cache.
type Option func(*Cache)

// WithDecoder replaces the decoder, mostly for tests.
func WithDecoder(fn DecodeFunc) Option {
	return func(c *Cache) { c.decode = fn }
}

// WithMaxEntries bounds how many decoded tables are retained.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// Cache keys decoded tables by dataset kind, file type and content hash.
// Returned tables are shared between callers and must be treated as read-only.
type Cache struct {
	decode     DecodeFunc
	maxEntries int
	logger     *zap.Logger

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]models.Table
	order   []string
}

// NewCache builds a cache backed by dataset.Parse.
func NewCache(logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		decode:     dataset.Parse,
		maxEntries: defaultMaxEntries,
		logger:     logger,
		entries:    make(map[string]models.Table),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the decoded table for content, decoding it at most once.
// Failed decodes are not cached.
func (c *Cache) Load(kind models.DatasetKind, filename string, content []byte) (models.Table, error) {
	key := cacheKey(kind, filename, content)

	c.mu.Lock()
	table, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		c.logger.Debug("dataset cache hit", zap.String("kind", string(kind)), zap.String("file", filename))
		return table, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		decoded, err := c.decode(kind, filename, bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		c.store(key, decoded)
		return decoded, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("dataset decoded",
		zap.String("kind", string(kind)),
		zap.String("file", filename),
		zap.Int("bytes", len(content)),
		zap.Bool("shared", shared))
	return v.(models.Table), nil
}

// Len reports the number of cached tables.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) store(key string, table models.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return
	}
	for len(c.order) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = table
	c.order = append(c.order, key)
}

func cacheKey(kind models.DatasetKind, filename string, content []byte) string {
	sum := sha256.Sum256(content)
	return string(kind) + "|" + strings.ToLower(filepath.Ext(filename)) + "|" + hex.EncodeToString(sum[:])
}
