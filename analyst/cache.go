package analyst

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Cache is the process-wide store of accepted analyses. Entries expire a
// fixed TTL after they are written and are dropped lazily on read; the LRU
// bound only matters when more distinct matches arrive within one TTL than
// the store can hold.
type Cache struct {
	mu      sync.Mutex
	entries *simplelru.LRU
	ttl     time.Duration
	now     func() time.Time
}

// NewCache builds a store holding at most size entries. now may be nil to
// use the wall clock.
func NewCache(size int, ttl time.Duration, now func() time.Time) (*Cache, error) {
	entries, err := simplelru.NewLRU(size, nil)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{entries: entries, ttl: ttl, now: now}, nil
}

// Get returns the live value for key. An expired entry is removed and
// reported as a miss.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.entries.Get(key)
	if !ok {
		return "", false
	}
	entry := raw.(cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return "", false
	}
	return entry.value, true
}

// Set stores value under key for one TTL, replacing any previous entry.
func (c *Cache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Evict drops key immediately.
func (c *Cache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(key)
}

// Len counts stored entries, including expired ones not read since.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
