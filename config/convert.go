package config

import (
	"math"
	"time"

	"github.com/jonwraymond/resilientapi/cache"
	"github.com/jonwraymond/resilientapi/resilience"
)

// minCacheMaxTTL is the lowest TTL ceiling handed to the cache, so per-call
// overrides above the default TTL still apply.
const minCacheMaxTTL = time.Hour

// rateLimitMaxWait bounds how long an attempt waits for a rate limit token.
const rateLimitMaxWait = time.Second

// CachePolicy returns the cache policy. A disabled cache yields
// cache.NoCachePolicy.
func (c Config) CachePolicy() cache.Policy {
	if !c.Cache.Enabled {
		return cache.NoCachePolicy()
	}
	return cache.Policy{
		DefaultTTL: c.Cache.TTL,
		MaxTTL:     max(c.Cache.TTL, minCacheMaxTTL),
		MaxEntries: c.Cache.MaxSize,
	}
}

// RetryConfig returns the retry settings.
func (c Config) RetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    c.Retry.MaxAttempts,
		InitialDelay:   c.Retry.BaseDelay,
		MaxDelay:       c.Retry.MaxDelay,
		Multiplier:     c.Retry.Multiplier,
		Strategy:       resilience.BackoffExponential,
		JitterFraction: c.Retry.Jitter,
		NoJitter:       c.Retry.Jitter == 0,
	}
}

// BreakerConfig returns the settings shared by every endpoint breaker.
func (c Config) BreakerConfig() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		MaxFailures:  c.Breaker.FailureThreshold,
		ResetTimeout: c.Breaker.Cooldown,
	}
}

// RateLimiterConfig returns the outbound rate limiter settings and whether
// rate limiting is enabled.
func (c Config) RateLimiterConfig() (resilience.RateLimiterConfig, bool) {
	if c.RateLimit.RPS <= 0 {
		return resilience.RateLimiterConfig{}, false
	}
	burst := c.RateLimit.Burst
	if burst <= 0 {
		burst = max(1, int(math.Ceil(c.RateLimit.RPS)))
	}
	return resilience.RateLimiterConfig{
		Rate:        c.RateLimit.RPS,
		Burst:       burst,
		WaitOnLimit: true,
		MaxWait:     rateLimitMaxWait,
	}, true
}

// BulkheadConfig returns the concurrency bound and whether it is enabled.
func (c Config) BulkheadConfig() (resilience.BulkheadConfig, bool) {
	if c.Concurrency.MaxConcurrent <= 0 {
		return resilience.BulkheadConfig{}, false
	}
	return resilience.BulkheadConfig{MaxConcurrent: c.Concurrency.MaxConcurrent}, true
}

// TimeoutConfig returns the per-attempt timeout.
func (c Config) TimeoutConfig() resilience.TimeoutConfig {
	return resilience.TimeoutConfig{Timeout: c.API.Timeout}
}
