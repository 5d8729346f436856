package kvcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/chatsearch/internal/db"
)

// DefaultMemorySize bounds the in-process cache.
const DefaultMemorySize = 10000

type entry struct {
	data      []byte
	expiresAt time.Time // zero: no per-entry expiry
}

// Memory is an in-process LRU cache. maxTTL caps every entry; Set may shorten it.
type Memory struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

// NewMemory creates a cache holding at most size entries.
func NewMemory(size int, maxTTL time.Duration) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &Memory{
		lru: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now: time.Now,
	}
}

func memKey(ns, key string) string { return ns + ":" + key }

// Get returns a copy of the cached value.
func (c *Memory) Get(_ context.Context, ns, key string) ([]byte, error) {
	k := memKey(ns, key)
	e, ok := c.lru.Get(k)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(k)
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Set stores a copy of value.
func (c *Memory) Set(_ context.Context, ns, key string, value []byte, ttl time.Duration) error {
	e := entry{data: make([]byte, len(value))}
	copy(e.data, value)
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(memKey(ns, key), e)
	return nil
}

// Len reports the number of entries, including ones past their TTL not yet collected.
func (c *Memory) Len() int {
	return c.lru.Len()
}
