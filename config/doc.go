// Package config loads client configuration.
//
// Values are layered in order: built-in defaults, an optional YAML file,
// environment variables, and finally secret resolution of the API key
// (plain value, ${ENV} expansion or a "secretref:" reference). The result is
// validated with struct tags.
//
// Recognized environment variables:
//
//	UPGUARD_API_URL             base URL of the API
//	UPGUARD_API_KEY             API key or secretref
//	UPGUARD_REQUEST_TIMEOUT     per-attempt timeout, milliseconds or duration
//	CACHE_ENABLED               true|false
//	CACHE_TTL                   default GET TTL, seconds or duration
//	CACHE_MAX_SIZE              max cached responses
//	RETRY_MAX_ATTEMPTS          attempts per call, including the first
//	RETRY_BASE_DELAY            first backoff delay, milliseconds or duration
//	RETRY_MULTIPLIER            exponential backoff multiplier
//	RETRY_MAX_DELAY             backoff cap, milliseconds or duration
//	RETRY_JITTER                jitter fraction in [0, 1]; 0 disables jitter
//	BREAKER_FAILURE_THRESHOLD   consecutive failures before a circuit opens
//	BREAKER_COOLDOWN            open period before a trial, milliseconds or duration
//	RATE_LIMIT_RPS              outbound requests per second; 0 disables
//	RATE_LIMIT_BURST            token bucket burst
//	MAX_CONCURRENT_REQUESTS     in-flight attempt cap; 0 disables
//	LOG_LEVEL                   debug|info|warn|error
package config
