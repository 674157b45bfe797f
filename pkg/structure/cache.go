package structure

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/storage"
)

type cacheEntry struct {
	spec    *Spec
	header  *Header
	modTime time.Time
}

// Cache memoises compiled structures per path. An entry is recompiled when
// the file's modification time changes.
type Cache struct {
	store *storage.Store

	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int
	misses  int
}

// NewCache returns a cache reading through store. A nil store uses the
// default store.
func NewCache(store *storage.Store) *Cache {
	if store == nil {
		store = storage.Default()
	}
	return &Cache{
		store:   store,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the compiled structure at path.
func (c *Cache) Get(ctx context.Context, path string) (*Spec, *Header, error) {
	mod, err := c.store.ModTime(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	e, ok := c.entries[path]
	if ok && e.modTime.Equal(mod) {
		c.hits++
		c.mu.Unlock()
		return e.spec, e.header, nil
	}
	c.misses++
	c.mu.Unlock()

	spec, header, err := CompileWith(ctx, c.store, path)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{spec: spec, header: header, modTime: mod}
	c.mu.Unlock()

	logger.WithContext(ctx).Debug("structure cached",
		zap.String("path", path),
		zap.Time("mod_time", mod))
	return spec, header, nil
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}
