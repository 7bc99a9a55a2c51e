package auth

import "errors"

// Sentinel errors for outbound credentials.
var (
	// ErrMissingCredentials indicates no credential value is configured.
	ErrMissingCredentials = errors.New("auth: missing credentials")

	// ErrInvalidCredentials indicates the credential cannot be sent as a
	// header value.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
