package secret

import "errors"

// Sentinel errors for secret resolution. Messages never include secret values.
var (
	ErrMissingEnv          = errors.New("secret: missing required environment variables")
	ErrProviderNotFound    = errors.New("secret: provider is not registered")
	ErrProviderExists      = errors.New("secret: provider already registered")
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")
	ErrInvalidRef          = errors.New("secret: invalid secret reference")
	ErrNotFound            = errors.New("secret: secret not found")
	ErrEmptyValue          = errors.New("secret: provider returned empty value")
)
