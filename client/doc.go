// Package client executes calls against an HTTP JSON API with caching,
// per-endpoint circuit breaking and classified retries.
//
// A logical call flows through these steps:
//
//  1. Cacheable reads (GET/HEAD, cache enabled, effective TTL > 0) are served
//     from the response cache when fresh. A hit touches neither the network
//     nor the circuit breaker.
//  2. Before every network attempt the breaker for the call's endpoint key
//     ("<METHOD> <path template>") is consulted. A rejection ends the call
//     with a CircuitOpen error.
//  3. Each attempt runs through the local guards (rate limiter, bulkhead,
//     per-attempt timeout), is classified, and is reported to the breaker.
//     Retryable failures back off and try again up to the attempt limit.
//  4. A successful cacheable response is stored with the requested or default
//     TTL.
//  5. A failed call returns a single *apierr.Error carrying the final
//     classification, the upstream status and body, the attempt count and a
//     request echo with the credential redacted.
//
// Every call gets a unique call ID and is traced, measured and logged through
// the observe package. The API key never appears in logs, errors or
// fmt output.
package client
