package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/resilientapi/apierr"
	"github.com/jonwraymond/resilientapi/auth"
	"github.com/jonwraymond/resilientapi/cache"
	"github.com/jonwraymond/resilientapi/config"
	"github.com/jonwraymond/resilientapi/health"
	"github.com/jonwraymond/resilientapi/observe"
	"github.com/jonwraymond/resilientapi/resilience"
)

// Client executes API calls. It is safe for concurrent use; the cache and
// breakers are shared by all calls made through the same Client.
type Client struct {
	baseURL string
	key     *auth.APIKey
	http    *http.Client
	now     func() time.Time

	policy cache.Policy
	cache  cache.Cache
	reads  *cache.ReadThrough

	breakers *resilience.BreakerSet
	retry    *resilience.Retry
	guard    *resilience.Executor
	timeout  *resilience.Timeout

	mw      *observe.Middleware
	logger  observe.Logger
	metrics observe.Metrics
}

// New creates a Client from cfg. A missing API key is logged and every call
// then fails with an AuthError wrapping auth.ErrMissingCredentials.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observe.NewLogger(cfg.Logging.Level)
	}
	if o.metrics == nil {
		o.metrics = observe.NopMetrics()
	}

	key := auth.NewAPIKey(cfg.API.Key, auth.APIKeyConfig{HeaderName: cfg.API.AuthHeader})

	c := &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		key:     key,
		http:    newHTTPClient(o.httpClient, key),
		now:     o.now,
		policy:  cfg.CachePolicy(),
		mw:      observe.NewMiddleware(o.tracer, o.metrics, o.logger),
		logger:  o.logger,
		metrics: o.metrics,
	}

	if c.policy.ShouldCache() {
		c.cache = o.cache
		if c.cache == nil {
			c.cache = cache.NewMemoryCache(c.policy, cache.WithClock(o.now))
		}
		c.reads = cache.NewReadThrough(c.cache, cache.WithStoreErrorHandler(c.onStoreError))
	}

	breakerCfg := cfg.BreakerConfig()
	breakerCfg.Now = o.now
	c.breakers = resilience.NewBreakerSet(breakerCfg, resilience.WithBreakerStateChange(c.onBreakerChange))

	retryCfg := cfg.RetryConfig()
	retryCfg.Sleep = o.sleep
	c.retry = resilience.NewRetry(retryCfg)

	c.timeout = resilience.NewTimeout(cfg.TimeoutConfig())
	guardOpts := []resilience.ExecutorOption{resilience.WithTimeoutConfig(c.timeout)}
	if rl, ok := cfg.RateLimiterConfig(); ok {
		rl.Now = o.now
		guardOpts = append(guardOpts, resilience.WithRateLimiter(resilience.NewRateLimiter(rl)))
	}
	if bh, ok := cfg.BulkheadConfig(); ok {
		guardOpts = append(guardOpts, resilience.WithBulkhead(resilience.NewBulkhead(bh)))
	}
	c.guard = resilience.NewExecutor(guardOpts...)

	if err := key.Validate(); err != nil {
		c.logger.Warn(context.Background(), "api key not configured; calls will fail",
			observe.Field{Key: "header", Value: key.HeaderName()},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}

	return c, nil
}

func newHTTPClient(base *http.Client, key *auth.APIKey) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	hc := *base
	hc.Transport = auth.NewTransport(base.Transport, key)
	return &hc
}

func (c *Client) onStoreError(key string, err error) {
	c.logger.Warn(context.Background(), "response loaded but not cached",
		observe.Field{Key: "cache_key", Value: key},
		observe.Field{Key: "error", Value: err.Error()},
	)
}

func (c *Client) onBreakerChange(key string, from, to resilience.State) {
	ctx := context.Background()
	c.metrics.RecordBreakerTransition(ctx, key, from.String(), to.String())
	c.logger.Warn(ctx, "circuit breaker state changed",
		observe.Field{Key: "endpoint", Value: key},
		observe.Field{Key: "from", Value: from.String()},
		observe.Field{Key: "to", Value: to.String()},
	)
}

// Execute performs one logical call.
//
// On failure the error is an *apierr.Error, except for malformed requests,
// which return an error wrapping ErrInvalidRequest.
func (c *Client) Execute(ctx context.Context, req Request) (*Result, error) {
	p, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	meta := observe.RequestMeta{
		CallID:   uuid.NewString(),
		Method:   p.method,
		Path:     p.path,
		Endpoint: p.endpoint,
		Label:    req.Label,
	}

	var result *Result
	call := c.mw.Wrap(func(ctx context.Context, meta observe.RequestMeta) (observe.CallInfo, error) {
		var err error
		result, err = c.execute(ctx, meta, req, p)
		return callInfo(result, err), err
	})

	if _, err := call(ctx, meta); err != nil {
		return nil, err
	}
	return result, nil
}

func callInfo(r *Result, err error) observe.CallInfo {
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) {
			return observe.CallInfo{Attempts: apiErr.Attempts, StatusCode: apiErr.StatusCode}
		}
		return observe.CallInfo{}
	}
	return observe.CallInfo{
		Attempts:   len(r.Attempts),
		Cached:     r.Cached,
		StatusCode: r.StatusCode,
	}
}

func (c *Client) prepare(req Request) (*prepared, error) {
	method := req.method()
	path, err := req.ResolvePath()
	if err != nil {
		return nil, err
	}

	query, err := encodeQuery(req.Params)
	if err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		if isReadMethod(method) {
			return nil, fmt.Errorf("%w: %s request cannot carry a body", ErrInvalidRequest, method)
		}
		if body, err = encodeBody(req.Body); err != nil {
			return nil, err
		}
	}

	target := c.baseURL + path
	if query != "" {
		target += "?" + query
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	return &prepared{
		method:   method,
		path:     path,
		endpoint: req.EndpointKey(),
		url:      target,
		body:     body,
		header:   header,
		echo: &apierr.RequestEcho{
			Method:  method,
			URL:     target,
			Params:  req.Params,
			Headers: auth.EchoHeaders(header, c.key),
		},
	}, nil
}

// cacheTTL returns the TTL for req, or 0 when the call is not cacheable.
func (c *Client) cacheTTL(req Request, method string) time.Duration {
	if c.reads == nil || req.SkipCache || !cache.IsCacheableMethod(method) {
		return 0
	}
	return c.policy.EffectiveTTL(req.CacheTTL)
}

func (c *Client) execute(ctx context.Context, meta observe.RequestMeta, req Request, p *prepared) (*Result, error) {
	ttl := c.cacheTTL(req, p.method)
	if ttl <= 0 {
		return c.call(ctx, meta, req, p)
	}

	key, err := cache.GenerateKey(p.method, p.path, req.Params)
	if err != nil {
		c.logger.WithRequest(meta).Debug(ctx, "response not cacheable; calling upstream directly",
			observe.Field{Key: "error", Value: err.Error()},
		)
		return c.call(ctx, meta, req, p)
	}

	var fresh *Result
	body, outcome, err := c.reads.Load(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		r, err := c.call(ctx, meta, req, p)
		if err != nil {
			return nil, err
		}
		fresh = r
		return r.Body, nil
	})
	c.metrics.RecordCacheLookup(ctx, meta, outcome.String())
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		return fresh, nil
	}
	return &Result{
		Body:       body,
		StatusCode: http.StatusOK,
		Cached:     outcome == cache.OutcomeHit,
		Shared:     outcome == cache.OutcomeShared,
	}, nil
}

// call runs the attempt loop for one logical call.
func (c *Client) call(ctx context.Context, meta observe.RequestMeta, req Request, p *prepared) (*Result, error) {
	if err := c.key.Validate(); err != nil {
		return nil, c.normalize(&apierr.Error{
			Kind:    apierr.KindAuth,
			Message: "API key not configured",
			Cause:   err,
		}, p, meta, 0)
	}

	if req.SkipResilience {
		return c.callOnce(ctx, meta, p)
	}

	var (
		attempts []Attempt
		resp     *response
	)
	log := c.logger.WithRequest(meta)

	err := c.retry.Execute(ctx, func(ctx context.Context, n int) error {
		d := c.breakers.Allow(p.endpoint)
		if !d.Allowed() {
			return &apierr.Error{
				Kind:    apierr.KindCircuitOpen,
				Message: "circuit breaker open for " + p.endpoint,
				Cause:   resilience.ErrCircuitOpen,
			}
		}

		start := c.now()
		var r *response
		err := c.guard.Execute(ctx, func(ctx context.Context) error {
			var err error
			r, err = c.send(ctx, p)
			return err
		})

		switch {
		case resilience.IsLocalRejection(err) || (err != nil && ctx.Err() != nil):
			c.breakers.Release(p.endpoint, d)
		case err == nil:
			c.breakers.RecordResult(p.endpoint, d, true)
		default:
			c.breakers.RecordResult(p.endpoint, d, !resilience.Classify(err).CountsAsFailure())
		}

		a := c.record(ctx, meta, n, start, r, err)
		attempts = append(attempts, a)
		if err != nil {
			if a.Outcome == OutcomeRetryable && n < c.retry.Config().MaxAttempts {
				log.Warn(ctx, "api attempt failed",
					observe.Field{Key: "attempt", Value: n},
					observe.Field{Key: "error.kind", Value: a.Kind.String()},
					observe.Field{Key: "status", Value: a.StatusCode},
				)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, c.normalize(err, p, meta, len(attempts))
	}

	return &Result{
		Body:       resp.body,
		StatusCode: resp.status,
		Attempts:   attempts,
	}, nil
}

// callOnce performs a single guarded attempt, bypassing breaker and retry.
func (c *Client) callOnce(ctx context.Context, meta observe.RequestMeta, p *prepared) (*Result, error) {
	start := c.now()
	var r *response
	err := c.timeout.Execute(ctx, func(ctx context.Context) error {
		var err error
		r, err = c.send(ctx, p)
		return err
	})
	a := c.record(ctx, meta, 1, start, r, err)
	if err != nil {
		return nil, c.normalize(err, p, meta, 1)
	}
	return &Result{Body: r.body, StatusCode: r.status, Attempts: []Attempt{a}}, nil
}

func (c *Client) record(ctx context.Context, meta observe.RequestMeta, n int, start time.Time, r *response, err error) Attempt {
	a := Attempt{
		Number:    n,
		StartedAt: start,
		Duration:  c.now().Sub(start),
	}
	if r != nil {
		a.StatusCode = r.status
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		a.StatusCode = apiErr.StatusCode
	}
	if err != nil {
		a.Kind = resilience.Classify(err)
	}
	a.Outcome = outcomeOf(err, a.Kind)

	c.metrics.RecordAttempt(ctx, meta, n, a.StatusCode, a.Duration, err)
	return a
}

type response struct {
	status int
	body   []byte
}

// send performs one HTTP exchange. Non-2xx statuses become *apierr.Error.
func (c *Client) send(ctx context.Context, p *prepared) (*response, error) {
	req, err := p.newHTTPRequest(ctx)
	if err != nil {
		return nil, apierr.Wrap(err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Wrap(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apierr.Wrap(err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, apierr.FromResponse(res.StatusCode, res.Header, body, c.now())
	}
	return &response{status: res.StatusCode, body: body}, nil
}

// normalize converts the final attempt error into the caller-facing
// *apierr.Error.
func (c *Client) normalize(err error, p *prepared, meta observe.RequestMeta, attempts int) *apierr.Error {
	var out apierr.Error
	var apiErr *apierr.Error
	switch {
	case errors.As(err, &apiErr) && error(apiErr) == err:
		out = *apiErr
	case apiErr != nil:
		// Wrapped by a guard such as the attempt timeout.
		out = *apiErr
		out.Kind = resilience.Classify(err)
		out.Cause = err
	default:
		out = *apierr.Wrap(err)
		out.Kind = resilience.Classify(err)
	}

	out.Method = p.method
	out.Path = p.path
	out.Endpoint = p.endpoint
	out.CallID = meta.CallID
	out.Attempts = attempts
	out.Request = p.echo
	return &out
}

// Get performs a GET. Responses are cached with the default TTL unless
// opts say otherwise.
func (c *Client) Get(ctx context.Context, path string, params map[string]any, opts ...RequestOption) (*Result, error) {
	return c.Execute(ctx, newRequest(http.MethodGet, path, params, nil, opts))
}

// Post performs a POST with a JSON body. It is never cached.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Result, error) {
	return c.Execute(ctx, newRequest(http.MethodPost, path, nil, body, opts))
}

// Put performs a PUT with a JSON body. It is never cached.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Result, error) {
	return c.Execute(ctx, newRequest(http.MethodPut, path, nil, body, opts))
}

// Delete performs a DELETE. It is never cached.
func (c *Client) Delete(ctx context.Context, path string, params map[string]any, opts ...RequestOption) (*Result, error) {
	return c.Execute(ctx, newRequest(http.MethodDelete, path, params, nil, opts))
}

func newRequest(method, path string, params map[string]any, body any, opts []RequestOption) Request {
	r := Request{Method: method, Path: path, Params: params, Body: body}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Invalidate drops the cached GET response for the resolved path and params.
func (c *Client) Invalidate(ctx context.Context, path string, params map[string]any) error {
	if c.reads == nil {
		return ErrNoCache
	}
	key, err := cache.GenerateKey(http.MethodGet, path, params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return c.reads.Invalidate(ctx, key)
}

// InvalidatePath drops every cached GET response for path, whatever its
// params. It returns ErrNoCache when caching is disabled.
func (c *Client) InvalidatePath(ctx context.Context, path string) error {
	if c.reads == nil {
		return ErrNoCache
	}
	return c.reads.InvalidatePrefix(ctx, cache.KeyPrefix(http.MethodGet, path))
}

// PurgeCache removes every cached response.
func (c *Client) PurgeCache() {
	if cl, ok := c.cache.(interface{ Clear() }); ok {
		cl.Clear()
	}
}

// Breakers returns the per-endpoint circuit breakers.
func (c *Client) Breakers() *resilience.BreakerSet {
	return c.breakers
}

// Health returns an aggregator reporting breaker and cache health.
func (c *Client) Health() *health.Aggregator {
	agg := health.NewAggregator()
	agg.Register("circuit_breakers", health.NewBreakerChecker(c.breakers))

	var stats health.CacheStatsSource
	if s, ok := c.cache.(health.CacheStatsSource); ok {
		stats = s
	}
	agg.Register("cache", health.NewCacheChecker(stats, health.CacheCheckerConfig{}))
	return agg
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
