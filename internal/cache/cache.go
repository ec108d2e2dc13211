// Package cache provides a small in-process LRU for expensive dashboard
// aggregates. Entries are invalidated per key when an underlying write
// happens, never by clearing the whole cache.
package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSize = 512

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a fixed-size LRU with per-entry TTL
type Cache struct {
	lru *lru.Cache[string, entry]
	ttl time.Duration
}

func New(size int, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		size = defaultSize
	}
	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.lru.Add(key, entry{value: value, expiresAt: time.Now().Add(c.ttl)})
}

// Invalidate drops a single key
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// ClientMetricsKey is the cache key for one client's financial widget
func ClientMetricsKey(clientID uuid.UUID) string {
	return fmt.Sprintf("client_metrics:%s", clientID)
}
