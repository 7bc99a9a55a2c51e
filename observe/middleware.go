package observe

import (
	"context"
	"time"
)

// CallInfo summarizes how a logical call was served.
type CallInfo struct {
	Attempts   int  // HTTP attempts made; 0 for cache hits
	Cached     bool // served from the response cache
	StatusCode int  // final HTTP status, 0 if none
}

// ExecuteFunc performs one logical API call.
type ExecuteFunc func(ctx context.Context, meta RequestMeta) (CallInfo, error)

// Middleware wraps a logical call with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: the span context is propagated to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Wrap wraps fn with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta RequestMeta) (CallInfo, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		info, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, meta, info, duration, err)

		log := m.logger.WithRequest(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			{Key: "attempts", Value: info.Attempts},
			{Key: "cached", Value: info.Cached},
		}
		if info.StatusCode != 0 {
			fields = append(fields, Field{Key: "status", Value: info.StatusCode})
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Error(ctx, "api call failed", fields...)
		} else {
			log.Info(ctx, "api call completed", fields...)
		}

		return info, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
