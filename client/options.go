package client

import (
	"context"
	"net/http"
	"time"

	"github.com/jonwraymond/resilientapi/cache"
	"github.com/jonwraymond/resilientapi/observe"
	"github.com/jonwraymond/resilientapi/resilience"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     observe.Logger
	metrics    observe.Metrics
	tracer     observe.Tracer
	now        func() time.Time
	sleep      resilience.SleepFunc
	cache      cache.Cache
}

// WithHTTPClient sets the HTTP client used for attempts. Its transport is
// wrapped to attach the API key; the given client is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithLogger sets the logger. Default: a JSON logger on stderr at the
// configured level.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observe.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer. Default: no-op.
func WithTracer(t observe.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithObserver takes the logger, metrics and tracer from obs.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) {
		mw, err := observe.MiddlewareFromObserver(obs)
		if err != nil {
			o.logger = obs.Logger()
			o.tracer = observe.NewTracer(obs.Tracer())
			return
		}
		o.logger = mw.Logger()
		o.metrics = mw.Metrics()
		o.tracer = observe.NewTracer(obs.Tracer())
	}
}

// WithClock sets the time source for cache expiry, breaker cooldowns and
// Retry-After dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSleep replaces the backoff wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// WithCache replaces the in-memory response cache.
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// RequestOption adjusts a Request built by Get, Post, Put or Delete.
type RequestOption func(*Request)

// WithPathParams substitutes {name} placeholders in the path.
func WithPathParams(params map[string]string) RequestOption {
	return func(r *Request) {
		r.PathParams = params
	}
}

// WithQuery sets query parameters on a write request.
func WithQuery(params map[string]any) RequestOption {
	return func(r *Request) {
		r.Params = params
	}
}

// WithoutCache bypasses the response cache for the call.
func WithoutCache() RequestOption {
	return func(r *Request) {
		r.SkipCache = true
	}
}

// WithCacheTTL overrides the cache TTL. A negative ttl disables caching for
// the call.
func WithCacheTTL(ttl time.Duration) RequestOption {
	return func(r *Request) {
		r.CacheTTL = ttl
	}
}

// WithoutResilience performs a single attempt with no breaker or retry.
func WithoutResilience() RequestOption {
	return func(r *Request) {
		r.SkipResilience = true
	}
}

// WithLabel names the call in logs, spans and metrics.
func WithLabel(label string) RequestOption {
	return func(r *Request) {
		r.Label = label
	}
}
