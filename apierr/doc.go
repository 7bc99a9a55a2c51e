// Package apierr classifies upstream API failures.
//
// Every failed attempt is classified exactly once into a Kind. The Kind drives
// retry decisions in package resilience and is surfaced to callers through the
// normalized *Error returned by package client.
//
// Callers distinguish failure classes with errors.Is:
//
//	if errors.Is(err, apierr.ErrAuth) {
//	    // credentials are wrong, do not retry
//	}
//	if errors.Is(err, apierr.ErrCircuitOpen) {
//	    // upstream endpoint is isolated, back off longer
//	}
package apierr
