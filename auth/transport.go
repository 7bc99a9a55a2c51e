package auth

import (
	"errors"
	"net/http"
)

// ErrNilCredential is returned by Transport when no Credential is set.
var ErrNilCredential = errors.New("auth: transport has no credential")

// Transport is an http.RoundTripper that attaches a Credential to every
// request. The caller's request is never modified.
//
// Usage:
//
//	client := &http.Client{Transport: auth.NewTransport(nil, auth.NewAPIKey(key, auth.APIKeyConfig{}))}
type Transport struct {
	// Base performs the request. Default: http.DefaultTransport.
	Base http.RoundTripper

	// Credential is applied to each outbound request.
	Credential Credential
}

// NewTransport wraps base with cred. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, cred Credential) *Transport {
	return &Transport{Base: base, Credential: cred}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Credential == nil {
		closeBody(req)
		return nil, ErrNilCredential
	}

	out := req.Clone(req.Context())
	if err := t.Credential.Apply(out); err != nil {
		closeBody(req)
		return nil, err
	}
	return t.base().RoundTrip(out)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrippers must close the body even on error.
func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

var _ http.RoundTripper = (*Transport)(nil)
