package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/resilientapi/cache"
)

// CacheStatsSource reports response cache counters.
type CacheStatsSource interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures the response cache health checker.
type CacheCheckerConfig struct {
	// WarningThreshold is the fill ratio (size / capacity) at which the
	// cache reports degraded. Value should be between 0 and 1.
	// Default: 0.9
	WarningThreshold float64
}

// CacheChecker reports the in-memory response cache as degraded when it is
// close to capacity, since every further miss then evicts a live entry.
type CacheChecker struct {
	config CacheCheckerConfig
	source CacheStatsSource
}

// NewCacheChecker creates a cache health checker. A nil source reports the
// cache as disabled and healthy.
func NewCacheChecker(source CacheStatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold > 1 {
		config.WarningThreshold = 0.9
	}
	return &CacheChecker{config: config, source: source}
}

// Name returns "cache".
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check performs the cache health check.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.source == nil {
		return Healthy("cache disabled")
	}

	stats := c.source.Stats()
	details := map[string]any{
		"size":        stats.Size,
		"capacity":    stats.Capacity,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"evictions":   stats.Evictions,
		"expirations": stats.Expirations,
	}
	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		details["hit_ratio"] = float64(stats.Hits) / float64(lookups)
	}

	if stats.Capacity <= 0 {
		return Healthy(fmt.Sprintf("cache holds %d entries", stats.Size)).WithDetails(details)
	}

	fill := float64(stats.Size) / float64(stats.Capacity)
	details["fill_percent"] = fill * 100

	if fill >= c.config.WarningThreshold {
		return Degraded(fmt.Sprintf("cache nearly full: %.1f%%", fill*100)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("cache usage normal: %.1f%%", fill*100)).WithDetails(details)
}

var _ Checker = (*CacheChecker)(nil)
