package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonwraymond/resilientapi/resilience"
)

// BreakerSnapshotter reports the state of every known circuit breaker,
// keyed by endpoint.
type BreakerSnapshotter interface {
	Snapshot() map[string]resilience.CircuitBreakerMetrics
}

// BreakerChecker reports upstream availability from circuit breaker state:
// unhealthy when any endpoint's breaker is open, degraded when any is
// half-open, healthy otherwise.
type BreakerChecker struct {
	source BreakerSnapshotter
}

// NewBreakerChecker creates a circuit breaker health checker.
func NewBreakerChecker(source BreakerSnapshotter) *BreakerChecker {
	return &BreakerChecker{source: source}
}

// Name returns "circuit_breakers".
func (b *BreakerChecker) Name() string {
	return "circuit_breakers"
}

// Check performs the breaker health check.
func (b *BreakerChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if b.source == nil {
		return Healthy("no circuit breakers")
	}

	snapshot := b.source.Snapshot()
	var open, halfOpen []string
	details := make(map[string]any, len(snapshot))

	for key, m := range snapshot {
		entry := map[string]any{
			"state":                m.State.String(),
			"consecutive_failures": m.ConsecutiveFailures,
		}
		if !m.OpenedAt.IsZero() {
			entry["opened_at"] = m.OpenedAt.UTC()
		}
		details[key] = entry

		switch m.State {
		case resilience.StateOpen:
			open = append(open, key)
		case resilience.StateHalfOpen:
			halfOpen = append(halfOpen, key)
		}
	}
	sort.Strings(open)
	sort.Strings(halfOpen)

	switch {
	case len(open) > 0:
		return Unhealthy(
			fmt.Sprintf("circuit open for %s", strings.Join(open, ", ")),
			ErrCheckFailed,
		).WithDetails(details)
	case len(halfOpen) > 0:
		return Degraded(
			fmt.Sprintf("circuit half-open for %s", strings.Join(halfOpen, ", ")),
		).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("%d circuit(s) closed", len(snapshot))).WithDetails(details)
	}
}

var _ Checker = (*BreakerChecker)(nil)
