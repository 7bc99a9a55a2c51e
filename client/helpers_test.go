package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/resilientapi/config"
	"github.com/jonwraymond/resilientapi/observe"
)

const testKey = "ug-test-key-0123456789"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sleepRecorder records backoff waits without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// upstream is an httptest server counting the requests it receives.
type upstream struct {
	*httptest.Server
	hits atomic.Int32

	mu   sync.Mutex
	last *http.Request
	body []byte
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		u.mu.Lock()
		u.last = r.Clone(context.Background())
		u.body = buf.Bytes()
		u.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) Hits() int { return int(u.hits.Load()) }

func (u *upstream) Last() (*http.Request, []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last, u.body
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

type harness struct {
	client *Client
	up     *upstream
	clock  *testClock
	sleeps *sleepRecorder
	logs   *syncBuffer
}

// newHarness builds a Client against an upstream running handler. mutate
// adjusts the default configuration before the client is built.
func newHarness(t *testing.T, handler http.HandlerFunc, mutate func(*config.Config), opts ...Option) *harness {
	t.Helper()

	h := &harness{
		up:     newUpstream(t, handler),
		clock:  newTestClock(),
		sleeps: &sleepRecorder{},
		logs:   &syncBuffer{},
	}

	cfg := config.Default()
	cfg.API.BaseURL = h.up.URL
	cfg.API.Key = testKey
	cfg.Retry.Jitter = 0
	if mutate != nil {
		mutate(&cfg)
	}

	base := []Option{
		WithClock(h.clock.Now),
		WithSleep(h.sleeps.Sleep),
		WithLogger(observe.NewLoggerWithWriter("debug", h.logs)),
	}
	c, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	h.client = c
	return h
}
