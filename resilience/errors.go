package resilience

import (
	"errors"

	"github.com/jonwraymond/resilientapi/apierr"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when the local rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an attempt exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// IsLocalRejection reports whether err came from a local guard that refused
// to start the operation, as opposed to a failure of the operation itself.
func IsLocalRejection(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrBulkheadFull)
}

// Classify maps err to its kind, recognizing this package's sentinels before
// falling back to apierr.ClassifyError.
func Classify(err error) apierr.Kind {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return apierr.KindCircuitOpen
	case errors.Is(err, ErrRateLimitExceeded), errors.Is(err, ErrBulkheadFull):
		return apierr.KindRateLimited
	}
	return apierr.ClassifyError(err)
}
