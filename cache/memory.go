package cache

import (
	"bytes"
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is a bounded in-memory cache.
//
// When an insert of a new key would exceed capacity, one entry is evicted
// first: an expired entry if any exists, otherwise the least recently used.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	lru      *list.List // front = most recently used
	policy   Policy
	capacity int
	now      func() time.Time
	stats    Stats
}

type cacheEntry struct {
	key      string
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e *cacheEntry) validAt(now time.Time) bool {
	return now.Before(e.storedAt.Add(e.ttl))
}

// Stats contains cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	Size        int
	Capacity    int
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock sets the time source used for TTL checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache creates a new in-memory cache with the given policy.
// Capacity is policy.MaxEntries (default 1000).
func NewMemoryCache(policy Policy, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		policy:   policy,
		capacity: policy.capacity(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached value. Returns (nil, false) on miss or
// expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	entry, ok := elem.Value.(*cacheEntry)
	if !ok || entry.value == nil {
		// Unreadable entry: discard and report a miss.
		c.removeLocked(elem)
		c.stats.Misses++
		return nil, false
	}

	if !entry.validAt(c.now()) {
		c.removeLocked(elem)
		c.stats.Expirations++
		c.stats.Misses++
		return nil, false
	}

	c.lru.MoveToFront(elem)
	c.stats.Hits++
	return bytes.Clone(entry.value), true
}

// Set stores a copy of value with the given TTL. TTL<=0 means no caching.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if elem, ok := c.entries[key]; ok {
		elem.Value = &cacheEntry{key: key, value: stored, storedAt: now, ttl: ttl}
		c.lru.MoveToFront(elem)
		return nil
	}

	if len(c.entries) >= c.capacity {
		c.evictOneLocked(now)
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: stored, storedAt: now, ttl: ttl})
	c.entries[key] = elem
	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
	c.mu.Unlock()
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// how many were removed.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, ErrInvalidKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(elem)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of resident entries, including expired ones not yet
// collected.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
	c.mu.Unlock()
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (c *MemoryCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if entry, ok := elem.Value.(*cacheEntry); !ok || !entry.validAt(now) {
			c.removeLocked(elem)
			c.stats.Expirations++
			removed++
		}
		elem = prev
	}
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = len(c.entries)
	s.Capacity = c.capacity
	return s
}

// Policy returns the cache policy.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// evictOneLocked removes the least recently used expired entry, or the least
// recently used entry when none has expired.
func (c *MemoryCache) evictOneLocked(now time.Time) {
	for elem := c.lru.Back(); elem != nil; elem = elem.Prev() {
		if entry, ok := elem.Value.(*cacheEntry); !ok || !entry.validAt(now) {
			c.removeLocked(elem)
			c.stats.Expirations++
			return
		}
	}

	if back := c.lru.Back(); back != nil {
		c.removeLocked(back)
		c.stats.Evictions++
	}
}

func (c *MemoryCache) removeLocked(elem *list.Element) {
	c.lru.Remove(elem)
	if entry, ok := elem.Value.(*cacheEntry); ok {
		delete(c.entries, entry.key)
		return
	}
	// Unreadable value: find the owning key.
	for k, e := range c.entries {
		if e == elem {
			delete(c.entries, k)
			return
		}
	}
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
