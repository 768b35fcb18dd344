// Package memcache is an in-process domain.Cache backed by a bounded LRU.
// Values are stored JSON-encoded so readers never share memory with writers.
package memcache

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"hotel_search/internal/adapters/observability"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type Cache struct {
	lru *lru.Cache[string, entry]
	now func() time.Time
}

func New(size int) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, now: time.Now}, nil
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	if err := json.Unmarshal(e.value, dst); err != nil {
		return false, err
	}
	observability.ObserveCache("memory", "hit")
	return true, nil
}

// Set stores v; ttlSec <= 0 means no expiry.
func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := entry{value: b}
	if ttlSec > 0 {
		e.expiresAt = c.now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.lru.Add(key, e)
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.lru.Remove(key)
	observability.ObserveCache("memory", "del")
	return nil
}

func (c *Cache) Len() int { return c.lru.Len() }
