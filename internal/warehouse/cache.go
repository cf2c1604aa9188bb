package warehouse

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a loaded table stays fresh.
const DefaultCacheTTL = 10 * time.Minute

// LoadFunc produces a table on a cache miss.
type LoadFunc func(ctx context.Context) (Table, error)

type cacheEntry struct {
	table   Table
	expires time.Time
}

// Cache memoizes tables by key for a fixed TTL. Concurrent misses on the same
// key share a single load. Failed loads are not cached.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCache creates a cache. A non-positive ttl uses DefaultCacheTTL and a nil
// clock uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached table for key, calling load when it is missing or
// expired. A shared load is not cancelled by any one caller; each caller
// stops waiting when its own ctx is done.
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (Table, error) {
	if t, ok := c.lookup(key); ok {
		return t, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if t, ok := c.lookup(key); ok {
			return t, nil
		}
		t, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{table: t, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return t, nil
	})

	select {
	case <-ctx.Done():
		return Table{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Table{}, res.Err
		}
		return res.Val.(Table), nil
	}
}

func (c *Cache) lookup(key string) (Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return Table{}, false
	}
	return e.table, true
}
