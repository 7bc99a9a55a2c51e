package auth

import (
	"net/http"
	"strings"

	"github.com/jonwraymond/resilientapi/apierr"
)

// SensitiveHeaders lists headers whose values are never echoed.
var SensitiveHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"X-API-Key",
	"Cookie",
	"Set-Cookie",
}

func isSensitive(name string) bool {
	for _, h := range SensitiveHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// RedactHeaders flattens h into a map, replacing sensitive values with
// "[REDACTED]". Multiple values are joined with ", ".
func RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isSensitive(name) {
			out[name] = apierr.RedactedValue
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// EchoHeaders is RedactHeaders plus an explicit marker for the credential
// header of key: "[REDACTED]" when a credential is configured or already
// present in h, and "[MISSING]" otherwise.
func EchoHeaders(h http.Header, key *APIKey) map[string]string {
	out := RedactHeaders(h)
	name := DefaultHeaderName
	if key != nil {
		name = key.HeaderName()
	}
	if key.Configured() || h.Get(name) != "" {
		out[http.CanonicalHeaderKey(name)] = apierr.RedactedValue
	} else {
		out[http.CanonicalHeaderKey(name)] = apierr.MissingValue
	}
	return out
}
