package auth

import "net/http"

// Credential attaches authentication to an outbound request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Apply mutates only req's headers; req is already a private clone.
// - Errors: Apply returns ErrMissingCredentials when nothing is configured.
type Credential interface {
	Apply(req *http.Request) error
}

// CredentialFunc adapts an ordinary function to a Credential.
type CredentialFunc func(req *http.Request) error

// Apply calls f(req).
func (f CredentialFunc) Apply(req *http.Request) error {
	return f(req)
}

var _ Credential = CredentialFunc(nil)
