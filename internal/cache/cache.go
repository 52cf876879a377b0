// Package cache provides the bounded, time-expiring caches used by the
// schema engine and the snapshot archive.
//
// Schema hints change rarely relative to how often an AI-completion caller
// requests them, so a short TTL avoids re-deriving DDL on every request
// while still picking up table changes within minutes.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default sizing, both overridable via config.
const (
	DefaultMaxEntries = 100
	DefaultHintTTL    = 5 * time.Minute
	DefaultAssetTTL   = 30 * time.Minute
)

// Cache is a bounded LRU whose entries expire after a fixed TTL.
// It is safe for concurrent use.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

// New returns a cache holding at most maxEntries values for at most ttl.
// Non-positive arguments fall back to the defaults.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultHintTTL
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](maxEntries, nil, ttl)}
}

// Get returns the cached value for key and whether it was present.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores value under key, evicting the oldest entry when full.
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Remove drops key from the cache.
func (c *Cache[V]) Remove(key string) {
	c.lru.Remove(key)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
