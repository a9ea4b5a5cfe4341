// Package cache provides a content-addressed result cache. Keys are
// content hashes of the work's inputs, so identical work across matrix
// builds is computed at most once per run and shared afterwards.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/okian/timefold/pkg/logger"
	"github.com/okian/timefold/pkg/metrics"
)

// ComputeFunc produces the value for a key on a cache miss.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// Option applies a configuration option to the cache.
type Option func(*Cache)

// WithLogger sets a custom logger for cache activity.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Cache stores computed results by content key. Publication is
// all-or-nothing: a failed compute leaves no entry behind, so a later
// caller recomputes instead of reading a partial result.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
	group   singleflight.Group
	logger  logger.Logger
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached value for key, computing it first if
// absent. Concurrent callers for the same key share a single compute;
// the winner publishes and the rest read its result.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (interface{}, error) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.RecordCacheHit()
		return value, nil
	}

	value, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: an earlier flight for this key may
		// have published between our miss and now.
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		metrics.RecordCacheMiss()
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		metrics.RecordCacheHit()
	}
	if c.logger != nil {
		c.logger.Debug(ctx, "cache computed", logger.String("key", key))
	}
	return value, nil
}

// Get returns the cached value for key without computing.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Len reports the number of published entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
