package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/yangsearch/pkg/observability"
)

// Key identifies one autocomplete answer.
type Key struct {
	Kind  string
	Field string
	Term  string
}

// Validate checks that every part of the key is set.
func (k Key) Validate() error {
	if k.Kind == "" || k.Field == "" {
		return ErrInvalidCacheKey
	}
	return nil
}

// String renders the key. Terms are case-insensitive.
func (k Key) String() string {
	return k.Kind + ":" + k.Field + ":" + strings.ToLower(strings.TrimSpace(k.Term))
}

// Cache stores suggestion lists.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key Key) ([]string, error)
	Set(ctx context.Context, key Key, values []string) error
	// Invalidate drops every entry of an index kind.
	Invalidate(ctx context.Context, kind string) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	ItemCount int64   `json:"item_count"`
	HitRate   float64 `json:"hit_rate"`
}

// MemoryCache is an in-process LRU cache with expiring entries.
type MemoryCache struct {
	cache   *lru.LRU[string, []string]
	counter counter
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache holding at most size entries for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size < 1 {
		size = 1
	}
	return &MemoryCache{
		cache: lru.NewLRU[string, []string](size, nil, ttl),
	}
}

// Get returns the cached suggestions for key.
func (c *MemoryCache) Get(ctx context.Context, key Key) ([]string, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	values, ok := c.cache.Get(key.String())
	if !ok {
		c.counter.miss()
		return nil, ErrCacheMiss
	}

	c.counter.hit()
	return values, nil
}

// Set stores suggestions for key.
func (c *MemoryCache) Set(ctx context.Context, key Key, values []string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	c.cache.Add(key.String(), append([]string(nil), values...))
	return nil
}

// Invalidate drops every entry of kind.
func (c *MemoryCache) Invalidate(ctx context.Context, kind string) error {
	prefix := kind + ":"
	for _, k := range c.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Remove(k)
		}
	}
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats(ctx context.Context) (*Stats, error) {
	return c.counter.stats(int64(c.cache.Len())), nil
}

// Close releases resources
func (c *MemoryCache) Close() error {
	c.cache.Purge()
	return nil
}

// counter tracks hits and misses
type counter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (m *counter) hit()  { m.hits.Add(1) }
func (m *counter) miss() { m.misses.Add(1) }

func (m *counter) stats(items int64) *Stats {
	s := &Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		ItemCount: items,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Instrumented reports hits and misses of a cache to Prometheus.
type Instrumented struct {
	Cache
	metrics   *observability.Metrics
	cacheType string
}

// WithMetrics wraps c so that lookups are counted under cacheType.
func WithMetrics(c Cache, metrics *observability.Metrics, cacheType string) Cache {
	if metrics == nil {
		return c
	}
	return &Instrumented{Cache: c, metrics: metrics, cacheType: cacheType}
}

// Get looks up key and counts the outcome.
func (c *Instrumented) Get(ctx context.Context, key Key) ([]string, error) {
	values, err := c.Cache.Get(ctx, key)
	switch {
	case err == nil:
		c.metrics.CacheHitsTotal.WithLabelValues(c.cacheType).Inc()
	case err == ErrCacheMiss:
		c.metrics.CacheMissesTotal.WithLabelValues(c.cacheType).Inc()
	}
	return values, err
}
