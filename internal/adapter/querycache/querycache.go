package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/sync/singleflight"
)

var _ port.QueryCache = (*Cache)(nil)

// DefaultLimit is the number of results kept per tag.
const DefaultLimit = 1024

type entry struct {
	value     any
	expiresAt time.Time
}

// A Cache keeps fetched query results grouped by tag.
//
// Invalidating a tag drops its results; the next read refetches.
// Concurrent reads of a missing key share one fetch unless the tag
// was invalidated in between.
type Cache struct {
	ttl   time.Duration
	limit int
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[domain.CacheTag]map[string]entry
	gens    map[domain.CacheTag]uint64
}

// New returns a cache. Zero ttl keeps results until invalidated.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		limit:   DefaultLimit,
		now:     time.Now,
		entries: make(map[domain.CacheTag]map[string]entry),
		gens:    make(map[domain.CacheTag]uint64),
	}
}

func (c *Cache) Fetch(
	ctx context.Context,
	tag domain.CacheTag,
	key string,
	fetch func(context.Context) (any, error),
) (any, error) {
	const op = "Cache.Fetch"

	if v, ok := c.get(tag, key); ok {
		return v, nil
	}

	gen := c.generation(tag)

	flightKey := string(tag) + "\x00" + strconv.FormatUint(gen, 10) + "\x00" + key
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.set(tag, key, v, gen)
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (c *Cache) Invalidate(_ context.Context, tags ...domain.CacheTag) error {
	const op = "Cache.Invalidate"

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tag := range tags {
		delete(c.entries, tag)
		c.gens[tag]++
	}

	slog.Debug("invalidated", "op", op, "tags", tags)
	return nil
}

// Len returns the number of cached results under tag.
func (c *Cache) Len(tag domain.CacheTag) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[tag])
}

func (c *Cache) get(tag domain.CacheTag, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[tag][key]
	if !ok {
		return nil, false
	}

	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries[tag], key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) generation(tag domain.CacheTag) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[tag]
}

// set drops results fetched before an invalidation of the tag.
// A full tag first loses its expired results, then arbitrary ones.
func (c *Cache) set(tag domain.CacheTag, key string, v any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[tag] != gen {
		return
	}

	m, ok := c.entries[tag]
	if !ok {
		m = make(map[string]entry)
		c.entries[tag] = m
	}

	if _, ok := m[key]; !ok && c.limit > 0 && len(m) >= c.limit {
		c.evict(m)
	}

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	m[key] = entry{value: v, expiresAt: expiresAt}
}

func (c *Cache) evict(m map[string]entry) {
	now := c.now()
	for k, e := range m {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m, k)
		}
	}

	for k := range m {
		if len(m) < c.limit {
			return
		}
		delete(m, k)
	}
}
