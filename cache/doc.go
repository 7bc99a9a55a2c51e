// Package cache provides response caching for upstream API calls.
//
// It provides a Cache interface with a bounded in-memory implementation
// (LRU with expired-first eviction), SHA-256-based request fingerprints, TTL
// policies, and a read-through loader that collapses concurrent misses for
// the same key.
package cache
