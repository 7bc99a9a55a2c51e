package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors, one per Kind. Match with errors.Is; any *Error of the
// same Kind matches its sentinel.
var (
	ErrAuth              = &Error{Kind: KindAuth, Message: "authentication failed"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrRateLimited       = &Error{Kind: KindRateLimited, Message: "rate limit exceeded"}
	ErrServer            = &Error{Kind: KindServer, Message: "server error"}
	ErrNetworkTimeout    = &Error{Kind: KindNetworkTimeout, Message: "request timeout"}
	ErrConnectionRefused = &Error{Kind: KindConnectionRefused, Message: "connection refused"}
	ErrClient            = &Error{Kind: KindClient, Message: "client error"}
	ErrCircuitOpen       = &Error{Kind: KindCircuitOpen, Message: "circuit breaker is open"}
	ErrUnknown           = &Error{Kind: KindUnknown, Message: "unknown error"}
)

// RedactedValue replaces credential values in request echoes.
const RedactedValue = "[REDACTED]"

// MissingValue marks a credential header that was not set.
const MissingValue = "[MISSING]"

// RequestEcho describes the outbound request that failed. The credential
// header is always redacted.
type RequestEcho struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Params  map[string]any    `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Error is the normalized error returned for a failed logical call.
type Error struct {
	// Kind is the final classification.
	Kind Kind

	// Message is human readable.
	Message string

	// StatusCode is the upstream HTTP status, 0 when no response was received.
	StatusCode int

	// Body is the upstream response body, if any.
	Body []byte

	// RetryAfter is the server-provided retry hint, 0 if absent.
	RetryAfter time.Duration

	Method   string
	Path     string
	Endpoint string
	CallID   string

	// Attempts is the number of network attempts made for the call.
	Attempts int

	// Request echoes the outbound request with the credential redacted.
	Request *RequestEcho

	// Cause is the last underlying error.
	Cause error
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies cause and wraps it in an *Error. An *Error cause is
// returned unchanged.
func Wrap(cause error) *Error {
	if cause == nil {
		return nil
	}
	if e, ok := cause.(*Error); ok {
		return e
	}
	kind := ClassifyError(cause)
	return &Error{
		Kind:    kind,
		Message: transportMessage(kind, cause),
		Cause:   cause,
	}
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString("apierr: ")
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Method != "" || e.Path != "" {
		fmt.Fprintf(&b, " (%s %s)", e.Method, e.Path)
	}
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempt(s)", e.Attempts)
	}
	if e.Cause != nil && e.StatusCode == 0 {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Retryable reports whether the error's kind is retryable.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind.Retryable()
}

// FromResponse builds an error from a non-2xx upstream response.
func FromResponse(status int, header http.Header, body []byte, now time.Time) *Error {
	kind := ClassifyStatus(status)

	e := &Error{
		Kind:       kind,
		Message:    statusMessage(status, upstreamMessage(body)),
		StatusCode: status,
		Body:       body,
	}
	if header != nil {
		e.RetryAfter = ParseRetryAfter(header.Get("Retry-After"), now)
	}
	return e
}

func statusMessage(status int, upstream string) string {
	msg := fmt.Sprintf("HTTP Error: %d", status)

	switch ClassifyStatus(status) {
	case KindAuth:
		msg += ". Authentication failed - check API key"
	case KindRateLimited:
		msg += ". Rate limit exceeded - please retry later"
	case KindNotFound:
		msg += ". Resource not found"
	case KindServer:
		msg += ". Server error - service may be temporarily unavailable"
	}

	if upstream != "" {
		msg += ": " + upstream
	}
	return msg
}

// upstreamMessage extracts a "message" or "error" string from a JSON body.
func upstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func transportMessage(kind Kind, cause error) string {
	switch kind {
	case KindConnectionRefused:
		return "Connection refused - service may be down"
	case KindNetworkTimeout:
		return "Request timeout - service may be slow or unreachable"
	default:
		if cause != nil {
			return cause.Error()
		}
		return "Unknown error occurred"
	}
}

// maxRetryAfter bounds server hints so a bogus header cannot stall a call.
const maxRetryAfter = time.Hour

// ParseRetryAfter parses a Retry-After header given as delta-seconds or an
// HTTP date. It returns 0 when the value is absent or unusable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		d := time.Duration(seconds) * time.Second
		if d > maxRetryAfter {
			d = maxRetryAfter
		}
		return d
	}

	if t, err := http.ParseTime(value); err == nil {
		d := t.Sub(now)
		if d <= 0 {
			return 0
		}
		if d > maxRetryAfter {
			d = maxRetryAfter
		}
		return d
	}

	return 0
}
