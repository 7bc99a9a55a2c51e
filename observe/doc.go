// Package observe provides observability for API calls: structured logging
// backed by zap, OpenTelemetry metrics and tracing, and a Middleware that
// instruments each logical call.
//
// Credential-bearing fields (authorization, api_key, token, ...) are
// redacted by every Logger this package returns.
package observe
