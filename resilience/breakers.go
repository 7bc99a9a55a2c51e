package resilience

import (
	"sort"
	"sync"
)

// BreakerSet keeps one CircuitBreaker per endpoint key.
//
// Breakers are created on first use and share one configuration. Failures on
// one key never affect another.
type BreakerSet struct {
	config        CircuitBreakerConfig
	onStateChange func(key string, from, to State)

	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// BreakerSetOption configures a BreakerSet.
type BreakerSetOption func(*BreakerSet)

// WithBreakerStateChange registers a callback for transitions of any breaker.
func WithBreakerStateChange(fn func(key string, from, to State)) BreakerSetOption {
	return func(s *BreakerSet) {
		s.onStateChange = fn
	}
}

// NewBreakerSet creates an empty set. config.OnStateChange is ignored; use
// WithBreakerStateChange to observe transitions with their key.
func NewBreakerSet(config CircuitBreakerConfig, opts ...BreakerSetOption) *BreakerSet {
	config.OnStateChange = nil
	s := &BreakerSet{
		config:   config,
		breakers: make(map[string]*CircuitBreaker),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Breaker returns the breaker for key, creating it if needed.
func (s *BreakerSet) Breaker(key string) *CircuitBreaker {
	s.mu.RLock()
	cb, ok := s.breakers[key]
	s.mu.RUnlock()
	if ok {
		return cb
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.breakers[key]; ok {
		return cb
	}

	cfg := s.config
	if s.onStateChange != nil {
		notify := s.onStateChange
		cfg.OnStateChange = func(from, to State) { notify(key, from, to) }
	}
	cb = NewCircuitBreaker(cfg)
	s.breakers[key] = cb
	return cb
}

// Allow consults the breaker for key.
func (s *BreakerSet) Allow(key string) Decision {
	return s.Breaker(key).Allow()
}

// RecordResult records the outcome of an attempt that Allow admitted with d.
func (s *BreakerSet) RecordResult(key string, d Decision, success bool) {
	s.Breaker(key).RecordResult(d, success)
}

// Release returns an unused trial slot for key.
func (s *BreakerSet) Release(key string, d Decision) {
	s.Breaker(key).Release(d)
}

// State returns the state for key. Unknown keys are closed.
func (s *BreakerSet) State(key string) State {
	s.mu.RLock()
	cb, ok := s.breakers[key]
	s.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	return cb.State()
}

// Metrics returns the metrics for key. Unknown keys report a closed breaker.
func (s *BreakerSet) Metrics(key string) CircuitBreakerMetrics {
	s.mu.RLock()
	cb, ok := s.breakers[key]
	s.mu.RUnlock()
	if !ok {
		return CircuitBreakerMetrics{State: StateClosed}
	}
	return cb.Metrics()
}

// Keys returns the known endpoint keys in sorted order.
func (s *BreakerSet) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.breakers))
	for k := range s.breakers {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Snapshot returns the metrics of every known breaker.
func (s *BreakerSet) Snapshot() map[string]CircuitBreakerMetrics {
	s.mu.RLock()
	breakers := make(map[string]*CircuitBreaker, len(s.breakers))
	for k, cb := range s.breakers {
		breakers[k] = cb
	}
	s.mu.RUnlock()

	out := make(map[string]CircuitBreakerMetrics, len(breakers))
	for k, cb := range breakers {
		out[k] = cb.Metrics()
	}
	return out
}

// Reset closes the breaker for key. An empty key resets every breaker.
func (s *BreakerSet) Reset(key string) {
	if key != "" {
		s.mu.RLock()
		cb, ok := s.breakers[key]
		s.mu.RUnlock()
		if ok {
			cb.Reset()
		}
		return
	}

	s.mu.RLock()
	all := make([]*CircuitBreaker, 0, len(s.breakers))
	for _, cb := range s.breakers {
		all = append(all, cb)
	}
	s.mu.RUnlock()

	for _, cb := range all {
		cb.Reset()
	}
}
