package kvcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/chatsearch/internal/db"
	"github.com/kailas-cloud/chatsearch/internal/domain"
)

// kvStore is the consumer interface for the Redis-backed cache (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Redis keeps entries as plain string keys with server-side expiry.
type Redis struct {
	store  kvStore
	prefix string
}

// NewRedis creates a cache over the given store.
func NewRedis(s kvStore) *Redis {
	return &Redis{store: s, prefix: domain.KeyPrefix + "cache:"}
}

func (c *Redis) key(ns, key string) string {
	return c.prefix + ns + ":" + key
}

// Get returns the cached value.
func (c *Redis) Get(ctx context.Context, ns, key string) ([]byte, error) {
	data, err := c.store.Get(ctx, c.key(ns, key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, fmt.Errorf("cache get %s/%s: %w", ns, key, err)
	}
	return data, nil
}

// Set stores value for ttl; a non-positive ttl never expires.
func (c *Redis) Set(ctx context.Context, ns, key string, value []byte, ttl time.Duration) error {
	if err := c.store.SetWithTTL(ctx, c.key(ns, key), value, ttl); err != nil {
		return fmt.Errorf("cache set %s/%s: %w", ns, key, err)
	}
	return nil
}
