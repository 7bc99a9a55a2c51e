package cache

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc fetches a value on cache miss.
type LoaderFunc func(ctx context.Context) ([]byte, error)

// Outcome reports how ReadThrough.Load produced its value.
type Outcome int

const (
	// OutcomeMiss means the loader ran for this caller.
	OutcomeMiss Outcome = iota
	// OutcomeHit means the value came from the cache.
	OutcomeHit
	// OutcomeShared means one loader run served several concurrent callers.
	OutcomeShared
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeShared:
		return "shared"
	default:
		return "miss"
	}
}

// ReadThrough wraps a Cache with read-through loading.
//
// Concurrent misses for the same key run the loader once; the other callers
// receive copies of the same result. Errors are never cached, and neither are
// empty values. A load that was in flight when its key was invalidated never
// writes its result into the cache.
type ReadThrough struct {
	cache        Cache
	group        singleflight.Group
	onStoreError func(key string, err error)

	mu      sync.Mutex
	flights map[string]*flight
}

// flight tracks one loader run. stale is set when the key is invalidated
// while the loader is running.
type flight struct {
	stale bool
}

// ReadThroughOption configures a ReadThrough.
type ReadThroughOption func(*ReadThrough)

// WithStoreErrorHandler sets a callback for values that loaded fine but could
// not be stored. The caller still receives the value.
func WithStoreErrorHandler(fn func(key string, err error)) ReadThroughOption {
	return func(r *ReadThrough) {
		r.onStoreError = fn
	}
}

// NewReadThrough creates a read-through loader over c.
func NewReadThrough(c Cache, opts ...ReadThroughOption) *ReadThrough {
	r := &ReadThrough{cache: c, flights: make(map[string]*flight)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the cached value for key, or runs load and caches its result
// for ttl. A ttl <= 0 loads without caching.
//
// Callers that join an in-flight load share its outcome, including an error
// caused by the first caller's context. Shared values are copied per caller.
func (r *ReadThrough) Load(ctx context.Context, key string, ttl time.Duration, load LoaderFunc) ([]byte, Outcome, error) {
	if r == nil || r.cache == nil || ttl <= 0 {
		v, err := load(ctx)
		return v, OutcomeMiss, err
	}

	if cached, ok := r.cache.Get(ctx, key); ok {
		return cached, OutcomeHit, nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		f := r.begin(key)
		defer r.end(key, f)

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if len(value) > 0 {
			r.store(ctx, key, f, value, ttl)
		}
		return value, nil
	})

	outcome := OutcomeMiss
	if shared {
		outcome = OutcomeShared
	}
	if err != nil {
		return nil, outcome, err
	}

	value, _ := v.([]byte)
	if shared {
		value = bytes.Clone(value)
	}
	return value, outcome, nil
}

func (r *ReadThrough) begin(key string) *flight {
	f := &flight{}
	r.mu.Lock()
	r.flights[key] = f
	r.mu.Unlock()
	return f
}

func (r *ReadThrough) end(key string, f *flight) {
	r.mu.Lock()
	if r.flights[key] == f {
		delete(r.flights, key)
	}
	r.mu.Unlock()
}

// store writes value unless f was invalidated. It holds r.mu so an
// invalidation cannot slip between the check and the write.
func (r *ReadThrough) store(ctx context.Context, key string, f *flight, value []byte, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.stale {
		return
	}
	if err := r.cache.Set(ctx, key, value, ttl); err != nil && r.onStoreError != nil {
		r.onStoreError(key, err)
	}
}

// forgetLocked marks the in-flight load for key stale and detaches it, so
// later Loads start a fresh one.
func (r *ReadThrough) forgetLocked(key string) {
	if f, ok := r.flights[key]; ok {
		f.stale = true
		delete(r.flights, key)
	}
	r.group.Forget(key)
}

// Invalidate removes key from the cache and forgets any in-flight load for it.
func (r *ReadThrough) Invalidate(ctx context.Context, key string) error {
	if r == nil || r.cache == nil {
		return ErrNilCache
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.forgetLocked(key)
	return r.cache.Delete(ctx, key)
}

// InvalidatePrefix removes every key starting with prefix, in the cache and
// in flight. The cache must implement PrefixDeleter.
func (r *ReadThrough) InvalidatePrefix(ctx context.Context, prefix string) error {
	if r == nil || r.cache == nil {
		return ErrNilCache
	}
	pd, ok := r.cache.(PrefixDeleter)
	if !ok {
		return ErrPrefixUnsupported
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.flights {
		if strings.HasPrefix(key, prefix) {
			r.forgetLocked(key)
		}
	}
	_, err := pd.DeletePrefix(ctx, prefix)
	return err
}
