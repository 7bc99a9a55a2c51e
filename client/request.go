package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/resilientapi/apierr"
)

// Request describes one logical API call.
type Request struct {
	// Method is the HTTP method. Default: GET.
	Method string

	// Path is the path template relative to the base URL, for example
	// "/bulk/hostnames/{hostname}". The template identifies the endpoint for
	// circuit breaking.
	Path string

	// PathParams fill the {name} placeholders of Path.
	PathParams map[string]string

	// Params are encoded as the query string. Slices repeat the key.
	Params map[string]any

	// Body is JSON encoded for write methods. []byte and json.RawMessage
	// are sent as is.
	Body any

	// SkipCache bypasses the response cache.
	SkipCache bool

	// CacheTTL overrides the default TTL: 0 uses the default and a negative
	// value disables caching for this call.
	CacheTTL time.Duration

	// SkipResilience performs a single attempt without breaker or retry.
	SkipResilience bool

	// Label names the call in logs, spans and metrics.
	Label string
}

// EndpointKey returns the breaker key: "<METHOD> <path template>".
func (r Request) EndpointKey() string {
	return r.method() + " " + r.Path
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// ResolvePath substitutes PathParams into Path. Values are path-escaped.
func (r Request) ResolvePath() (string, error) {
	if !strings.HasPrefix(r.Path, "/") {
		return "", fmt.Errorf("%w: path %q must start with /", ErrInvalidRequest, r.Path)
	}

	var b strings.Builder
	rest := r.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated placeholder in %q", ErrInvalidRequest, r.Path)
		}
		end += open

		name := rest[open+1 : end]
		value, ok := r.PathParams[name]
		if name == "" || !ok || value == "" {
			return "", fmt.Errorf("%w: missing path parameter %q", ErrInvalidRequest, name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[end+1:]
	}
}

// encodeQuery renders params as a query string with sorted keys. Nil values
// are skipped.
func encodeQuery(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "", nil
	}

	values := url.Values{}
	for key, v := range params {
		if v == nil {
			continue
		}
		switch tv := v.(type) {
		case []string:
			for _, s := range tv {
				values.Add(key, s)
			}
			continue
		}

		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				s, err := scalarString(rv.Index(i).Interface())
				if err != nil {
					return "", fmt.Errorf("%w: query parameter %q: %w", ErrInvalidRequest, key, err)
				}
				values.Add(key, s)
			}
		default:
			s, err := scalarString(v)
			if err != nil {
				return "", fmt.Errorf("%w: query parameter %q: %w", ErrInvalidRequest, key, err)
			}
			values.Set(key, s)
		}
	}
	return values.Encode(), nil
}

func scalarString(v any) (string, error) {
	switch tv := v.(type) {
	case string:
		return tv, nil
	case bool:
		return strconv.FormatBool(tv), nil
	case int:
		return strconv.Itoa(tv), nil
	case int32:
		return strconv.FormatInt(int64(tv), 10), nil
	case int64:
		return strconv.FormatInt(tv, 10), nil
	case uint:
		return strconv.FormatUint(uint64(tv), 10), nil
	case uint64:
		return strconv.FormatUint(tv, 10), nil
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), nil
	case json.Number:
		return tv.String(), nil
	case fmt.Stringer:
		return tv.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %w", ErrInvalidRequest, err)
	}
	return data, nil
}

// prepared is a request ready to be sent any number of times.
type prepared struct {
	method   string
	path     string
	endpoint string
	url      string
	body     []byte
	header   http.Header
	echo     *apierr.RequestEcho
}

func (p *prepared) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}

	req, err := http.NewRequestWithContext(ctx, p.method, p.url, body)
	if err != nil {
		return nil, err
	}
	req.Header = p.header.Clone()
	return req, nil
}

// Outcome classifies a single attempt.
type Outcome int

const (
	// OutcomeSuccess is a 2xx response.
	OutcomeSuccess Outcome = iota
	// OutcomeRetryable is a failure another attempt may fix.
	OutcomeRetryable
	// OutcomeFatal is a failure that ends the call.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

func outcomeOf(err error, kind apierr.Kind) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case kind.Retryable():
		return OutcomeRetryable
	default:
		return OutcomeFatal
	}
}

// Attempt records one network attempt of a call.
type Attempt struct {
	Number     int
	StartedAt  time.Time
	Duration   time.Duration
	StatusCode int
	Outcome    Outcome

	// Kind is the failure classification; meaningless on success.
	Kind apierr.Kind
}

// Result is a successful call.
type Result struct {
	Body       json.RawMessage
	StatusCode int

	// Cached is true when the body came from the response cache.
	Cached bool

	// Shared is true when the body came from a concurrent call for the
	// same cache key.
	Shared bool

	// Attempts lists the network attempts; empty for cached and shared
	// results.
	Attempts []Attempt
}

// Decode unmarshals the JSON body into v.
func (r *Result) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("client: decode: empty body")
	}
	return json.Unmarshal(r.Body, v)
}
