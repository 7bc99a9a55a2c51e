package apierr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"
)

// Kind is the classification of a failed attempt.
type Kind int

const (
	// KindUnknown is an unclassified failure. Retryable, bounded by max attempts.
	KindUnknown Kind = iota
	// KindAuth is HTTP 401/403.
	KindAuth
	// KindNotFound is HTTP 404.
	KindNotFound
	// KindRateLimited is HTTP 429 or a local rate limit rejection.
	KindRateLimited
	// KindServer is HTTP 5xx.
	KindServer
	// KindNetworkTimeout is an attempt that exceeded its deadline.
	KindNetworkTimeout
	// KindConnectionRefused is a refused or reset connection.
	KindConnectionRefused
	// KindClient is any other HTTP 4xx.
	KindClient
	// KindCircuitOpen is a call rejected by the circuit breaker.
	KindCircuitOpen
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "AuthError"
	case KindNotFound:
		return "NotFound"
	case KindRateLimited:
		return "RateLimited"
	case KindServer:
		return "ServerError"
	case KindNetworkTimeout:
		return "NetworkTimeout"
	case KindConnectionRefused:
		return "ConnectionRefused"
	case KindClient:
		return "ClientError"
	case KindCircuitOpen:
		return "CircuitOpen"
	default:
		return "Unknown"
	}
}

// Retryable reports whether another attempt may succeed.
// CircuitOpen is not retryable within a call: the breaker already decided.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServer, KindNetworkTimeout, KindConnectionRefused, KindUnknown:
		return true
	default:
		return false
	}
}

// CountsAsFailure reports whether the kind reflects the health of the remote
// endpoint. Auth, not-found and other client errors are answers from a
// healthy upstream and do not trip a circuit breaker.
func (k Kind) CountsAsFailure() bool {
	return k.Retryable()
}

// ClassifyStatus maps a non-2xx HTTP status to a Kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindClient
	default:
		return KindUnknown
	}
}

// ClassifyError maps a transport-level error to a Kind.
func ClassifyError(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindNetworkTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return KindConnectionRefused
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindNetworkTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnectionRefused
	}

	return KindUnknown
}

// KindOf returns the Kind carried by err, classifying it if necessary.
func KindOf(err error) Kind {
	return ClassifyError(err)
}
