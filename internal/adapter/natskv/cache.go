// Package natskv implements the cache port using NATS JetStream KV as L2 remote cache.
package natskv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Cache wraps a NATS JetStream KeyValue store as an L2 cache.
type Cache struct {
	kv jetstream.KeyValue
}

// New creates a NATS KV-backed cache.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// kvKey maps cache keys onto the KV key alphabet. ':' separators become '.'
// and any other character outside [-/_=.a-zA-Z0-9] becomes '_'.
func kvKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ':':
			return '.'
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '/', r == '_', r == '=', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}

// Get retrieves a value from the NATS KV store.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, kvKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Set stores a value in the NATS KV store. TTL is managed at bucket level.
func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Put(ctx, kvKey(key), value)
	return err
}

// Delete removes a value from the NATS KV store.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
