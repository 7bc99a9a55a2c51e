// Package upguard provides thin wrappers for a representative set of UpGuard
// CyberRisk API endpoints on top of the resilient client.
//
// Each wrapper fixes the method, the path template and the cache TTL of one
// endpoint. Fast-moving risk data is cached for 3 minutes, diffs for 5 and
// the risk catalogue for 10; other reads use the client default. Writes are
// never cached and invalidate the cached reads they make stale.
package upguard
