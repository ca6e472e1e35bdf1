// Package ristretto is the in-process L1 cache in front of preferences reads.
package ristretto

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// avgEntryBytes estimates one cached preferences record; ristretto sizes its
// admission counters from the expected entry count.
const avgEntryBytes = 256

// Cache is a size-bounded cache.Cache. Values are copied on the way in and
// out, so callers may reuse their buffers.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache holding at most maxSizeMB megabytes of values.
func New(maxSizeMB int64) (*Cache, error) {
	if maxSizeMB <= 0 {
		return nil, fmt.Errorf("l1 cache size must be positive, got %d MB", maxSizeMB)
	}
	maxCost := maxSizeMB << 20
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10 * (maxCost / avgEntryBytes),
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto cache: %w", err)
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return slices.Clone(val), true, nil
}

// Set waits until the entry is visible, so a write followed by a read in the
// same request hits. Admission may still reject it under pressure.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.SetWithTTL(key, slices.Clone(value), int64(len(value)), ttl)
	c.c.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// HitRatio reports hits over lookups since the cache was created.
func (c *Cache) HitRatio() float64 {
	return c.c.Metrics.Ratio()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.c.Close()
}
