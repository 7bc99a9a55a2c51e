// Package health reports the health of the API client's resilience state.
//
// A Checker reports a Status: Healthy, Degraded, or Unhealthy. BreakerChecker
// derives upstream availability from per-endpoint circuit breakers and
// CacheChecker watches response cache fill. An Aggregator combines checkers.
//
// # Basic Usage
//
//	agg := health.NewAggregator()
//	agg.Register("circuit_breakers", health.NewBreakerChecker(client.Breakers()))
//	agg.Register("cache", health.NewCacheChecker(memCache, health.CacheCheckerConfig{}))
//
//	report := agg.Report(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    // at least one endpoint's circuit is open
//	}
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg, registry)
//
// mounts /healthz (liveness), /readyz (readiness), /health (detailed JSON)
// and /metrics (Prometheus).
package health
