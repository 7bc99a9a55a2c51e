// Package auth attaches a static credential to outbound API requests.
//
// An APIKey credential is applied by Transport, an http.RoundTripper that
// clones each request before setting the credential header. The key is never
// exposed through String or formatting; use RedactHeaders or EchoHeaders when
// a request has to be described in logs or errors.
package auth
