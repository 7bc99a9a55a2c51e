package upguard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonwraymond/resilientapi/client"
	"github.com/jonwraymond/resilientapi/config"
)

// Params are query parameters. Slice values repeat the key.
type Params = map[string]any

// Cache TTLs per endpoint class.
const (
	DynamicTTL   = 3 * time.Minute
	DiffTTL      = 5 * time.Minute
	CatalogueTTL = 10 * time.Minute
)

// Client exposes UpGuard endpoints.
type Client struct {
	c *client.Client
}

// New wraps an existing resilient client.
func New(c *client.Client) *Client {
	return &Client{c: c}
}

// NewFromConfig builds the resilient client from cfg and wraps it.
func NewFromConfig(cfg config.Config, opts ...client.Option) (*Client, error) {
	c, err := client.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return New(c), nil
}

// Resilient returns the underlying client, for health checks and breaker
// inspection.
func (u *Client) Resilient() *client.Client {
	return u.c
}

func (u *Client) get(ctx context.Context, label, path string, params Params, ttl time.Duration, opts ...client.RequestOption) (json.RawMessage, error) {
	opts = append([]client.RequestOption{client.WithLabel(label)}, opts...)
	if ttl > 0 {
		opts = append(opts, client.WithCacheTTL(ttl))
	}
	res, err := u.c.Get(ctx, path, params, opts...)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// write performs a non-cached call and, on success, drops the cached
// reads of every path listed in stale, whatever their params.
func (u *Client) write(ctx context.Context, label string, req client.Request, stale ...string) (json.RawMessage, error) {
	req.Label = label
	res, err := u.c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, path := range stale {
		_ = u.c.InvalidatePath(ctx, path)
	}
	return res.Body, nil
}

func post(path string, body any) client.Request {
	return client.Request{Method: http.MethodPost, Path: path, Body: body}
}

func put(path string, body any) client.Request {
	return client.Request{Method: http.MethodPut, Path: path, Body: body}
}
