package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonwraymond/resilientapi/apierr"
)

// DefaultHeaderName is the header that carries the API key.
const DefaultHeaderName = "Authorization"

// APIKeyConfig configures the API key credential.
type APIKeyConfig struct {
	// HeaderName is the header the key is sent in.
	// Default: "Authorization"
	HeaderName string

	// Scheme is prepended to the key with a space, e.g. "Bearer".
	// Default: none, the raw key is sent.
	Scheme string
}

// APIKey is a static API key credential.
type APIKey struct {
	config APIKeyConfig
	key    string
}

// NewAPIKey creates an API key credential. Surrounding whitespace is trimmed.
func NewAPIKey(key string, config APIKeyConfig) *APIKey {
	if config.HeaderName == "" {
		config.HeaderName = DefaultHeaderName
	}
	return &APIKey{
		config: config,
		key:    strings.TrimSpace(key),
	}
}

// HeaderName returns the header the key is sent in.
func (k *APIKey) HeaderName() string {
	return k.config.HeaderName
}

// Configured reports whether a key is present.
func (k *APIKey) Configured() bool {
	return k != nil && k.key != ""
}

// Validate checks that the key is present and usable as a header value.
func (k *APIKey) Validate() error {
	if !k.Configured() {
		return ErrMissingCredentials
	}
	if strings.ContainsAny(k.key, "\r\n\x00") {
		return fmt.Errorf("%w: key contains control characters", ErrInvalidCredentials)
	}
	return nil
}

// Apply sets the credential header on req.
func (k *APIKey) Apply(req *http.Request) error {
	if err := k.Validate(); err != nil {
		return err
	}
	value := k.key
	if k.config.Scheme != "" {
		value = k.config.Scheme + " " + value
	}
	req.Header.Set(k.config.HeaderName, value)
	return nil
}

// Fingerprint returns a short, non-reversible identifier for the key,
// suitable for logs. It is empty when no key is configured.
func (k *APIKey) Fingerprint() string {
	if !k.Configured() {
		return ""
	}
	hash := sha256.Sum256([]byte(k.key))
	return hex.EncodeToString(hash[:])[:12]
}

// String never reveals the key.
func (k *APIKey) String() string {
	if !k.Configured() {
		return apierr.MissingValue
	}
	return apierr.RedactedValue
}

// GoString never reveals the key.
func (k *APIKey) GoString() string {
	return "auth.APIKey(" + k.String() + ")"
}

var (
	_ Credential     = (*APIKey)(nil)
	_ fmt.Stringer   = (*APIKey)(nil)
	_ fmt.GoStringer = (*APIKey)(nil)
)
