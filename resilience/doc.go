// Package resilience provides the failure-handling primitives used by the
// request executor.
//
// # Patterns
//
//   - Circuit Breaker: per-endpoint failure tracker. Allow is consulted before
//     every network attempt and returns Proceed, Reject or ProceedAsTrial;
//     RecordResult drives the closed/open/half-open state machine. BreakerSet
//     keeps one breaker per endpoint key.
//
//   - Retry: classification-driven retry. ShouldRetry stops on fatal kinds
//     and at MaxAttempts; NextDelay is exponential backoff capped at MaxDelay
//     with +/- jitter. Rate-limit errors carrying Retry-After use the hint.
//
//   - Rate Limiter: token bucket limiting the attempt rate.
//
//   - Bulkhead: limits in-flight attempts.
//
//   - Timeout: bounds one attempt; expiry matches ErrTimeout and
//     context.DeadlineExceeded.
//
// # Usage
//
//	breakers := resilience.NewBreakerSet(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: 30 * time.Second,
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: time.Second,
//	    MaxDelay:     30 * time.Second,
//	})
//
//	guard := resilience.NewExecutor(resilience.WithTimeout(2 * time.Minute))
//
//	err := retry.Execute(ctx, func(ctx context.Context, attempt int) error {
//	    d := breakers.Allow("GET /risks")
//	    if !d.Allowed() {
//	        return resilience.ErrCircuitOpen
//	    }
//	    err := guard.Execute(ctx, callUpstream)
//	    breakers.RecordResult("GET /risks", d, err == nil)
//	    return err
//	})
//
// All clocks and sleeps are injectable so state machines can be tested with
// simulated time.
package resilience
