package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/resilientapi/apierr"
)

// Metrics records API call metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one logical call, after all attempts.
	RecordCall(ctx context.Context, meta RequestMeta, info CallInfo, duration time.Duration, err error)

	// RecordAttempt records a single HTTP attempt. statusCode is 0 when no
	// response was received.
	RecordAttempt(ctx context.Context, meta RequestMeta, attempt, statusCode int, duration time.Duration, err error)

	// RecordCacheLookup records a cache lookup outcome ("hit", "miss", "shared").
	RecordCacheLookup(ctx context.Context, meta RequestMeta, outcome string)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, endpoint, from, to string)
}

type metricsImpl struct {
	callCount       metric.Int64Counter
	callErrors      metric.Int64Counter
	callDuration    metric.Float64Histogram
	callAttempts    metric.Int64Histogram
	attemptCount    metric.Int64Counter
	attemptDuration metric.Float64Histogram
	cacheLookups    metric.Int64Counter
	breakerChanges  metric.Int64Counter
}

// NewMetrics creates the API call instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.callCount, err = meter.Int64Counter(
		"api.call.total",
		metric.WithDescription("Total number of logical API calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.callErrors, err = meter.Int64Counter(
		"api.call.errors",
		metric.WithDescription("Total number of failed logical API calls"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.callDuration, err = meter.Float64Histogram(
		"api.call.duration_ms",
		metric.WithDescription("Logical call duration in milliseconds, including retries"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.callAttempts, err = meter.Int64Histogram(
		"api.call.attempts",
		metric.WithDescription("HTTP attempts per logical call"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}

	if m.attemptCount, err = meter.Int64Counter(
		"api.attempt.total",
		metric.WithDescription("Total number of HTTP attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}

	if m.attemptDuration, err = meter.Float64Histogram(
		"api.attempt.duration_ms",
		metric.WithDescription("HTTP attempt duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.cacheLookups, err = meter.Int64Counter(
		"api.cache.lookups",
		metric.WithDescription("Response cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.breakerChanges, err = meter.Int64Counter(
		"api.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func endpointAttrs(meta RequestMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("api.endpoint", meta.EndpointKey()),
		attribute.String("http.method", meta.Method),
	}
	if meta.Label != "" {
		attrs = append(attrs, attribute.String("api.label", meta.Label))
	}
	return attrs
}

func (m *metricsImpl) RecordCall(ctx context.Context, meta RequestMeta, info CallInfo, duration time.Duration, err error) {
	attrs := append(endpointAttrs(meta), attribute.Bool("api.cached", info.Cached))
	if err != nil {
		attrs = append(attrs, attribute.String("error.kind", apierr.KindOf(err).String()))
	}
	opt := metric.WithAttributes(attrs...)

	m.callCount.Add(ctx, 1, opt)
	if err != nil {
		m.callErrors.Add(ctx, 1, opt)
	}
	m.callDuration.Record(ctx, float64(duration.Milliseconds()), opt)
	m.callAttempts.Record(ctx, int64(info.Attempts), opt)
}

func (m *metricsImpl) RecordAttempt(ctx context.Context, meta RequestMeta, attempt, statusCode int, duration time.Duration, err error) {
	attrs := append(endpointAttrs(meta),
		attribute.Int("api.attempt", attempt),
		attribute.String("http.status_code", strconv.Itoa(statusCode)),
	)
	if err != nil {
		attrs = append(attrs, attribute.String("error.kind", apierr.KindOf(err).String()))
	}
	opt := metric.WithAttributes(attrs...)

	m.attemptCount.Add(ctx, 1, opt)
	m.attemptDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, meta RequestMeta, outcome string) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		append(endpointAttrs(meta), attribute.String("cache.outcome", outcome))...,
	))
}

func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, endpoint, from, to string) {
	m.breakerChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("api.endpoint", endpoint),
		attribute.String("breaker.from", from),
		attribute.String("breaker.to", to),
	))
}

type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordCall(context.Context, RequestMeta, CallInfo, time.Duration, error) {}

func (nopMetrics) RecordAttempt(context.Context, RequestMeta, int, int, time.Duration, error) {}

func (nopMetrics) RecordCacheLookup(context.Context, RequestMeta, string) {}

func (nopMetrics) RecordBreakerTransition(context.Context, string, string, string) {}
