package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/resilientapi/secret"
)

// Environment variable names.
const (
	EnvAPIURL           = "UPGUARD_API_URL"
	EnvAPIKey           = "UPGUARD_API_KEY"
	EnvRequestTimeout   = "UPGUARD_REQUEST_TIMEOUT"
	EnvCacheEnabled     = "CACHE_ENABLED"
	EnvCacheTTL         = "CACHE_TTL"
	EnvCacheMaxSize     = "CACHE_MAX_SIZE"
	EnvRetryMaxAttempts = "RETRY_MAX_ATTEMPTS"
	EnvRetryBaseDelay   = "RETRY_BASE_DELAY"
	EnvRetryMultiplier  = "RETRY_MULTIPLIER"
	EnvRetryMaxDelay    = "RETRY_MAX_DELAY"
	EnvRetryJitter      = "RETRY_JITTER"
	EnvBreakerThreshold = "BREAKER_FAILURE_THRESHOLD"
	EnvBreakerCooldown  = "BREAKER_COOLDOWN"
	EnvRateLimitRPS     = "RATE_LIMIT_RPS"
	EnvRateLimitBurst   = "RATE_LIMIT_BURST"
	EnvMaxConcurrent    = "MAX_CONCURRENT_REQUESTS"
	EnvLogLevel         = "LOG_LEVEL"
)

// LookupEnvFunc has the signature of os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

type loadOptions struct {
	lookupEnv LookupEnvFunc
	resolver  *secret.Resolver
	secretDir string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithLookupEnv replaces os.LookupEnv as the source of environment values.
func WithLookupEnv(fn LookupEnvFunc) LoadOption {
	return func(o *loadOptions) {
		if fn != nil {
			o.lookupEnv = fn
		}
	}
}

// WithResolver resolves the API key with r instead of a resolver built from
// secret.DefaultRegistry. The caller keeps ownership of r.
func WithResolver(r *secret.Resolver) LoadOption {
	return func(o *loadOptions) {
		o.resolver = r
	}
}

// WithSecretDir sets the base directory of the "file" secret provider.
func WithSecretDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.secretDir = dir
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then resolves the API key and
// validates the result.
func Load(path string, opts ...LoadOption) (Config, error) {
	return LoadContext(context.Background(), path, opts...)
}

// LoadContext is Load with a context for secret resolution.
func LoadContext(ctx context.Context, path string, opts ...LoadOption) (Config, error) {
	o := loadOptions{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(o.lookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.resolveKey(ctx, o); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	defer file.Close()

	return c.decodeYAML(file)
}

// decodeYAML overlays the YAML document in r onto c. Unknown fields are
// rejected.
func (c *Config) decodeYAML(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupEnvFunc) error {
	e := envReader{lookup: lookup}

	e.str(EnvAPIURL, &c.API.BaseURL)
	e.str(EnvAPIKey, &c.API.Key)
	e.duration(EnvRequestTimeout, time.Millisecond, &c.API.Timeout)

	e.boolean(EnvCacheEnabled, &c.Cache.Enabled)
	e.duration(EnvCacheTTL, time.Second, &c.Cache.TTL)
	e.integer(EnvCacheMaxSize, &c.Cache.MaxSize)

	e.integer(EnvRetryMaxAttempts, &c.Retry.MaxAttempts)
	e.duration(EnvRetryBaseDelay, time.Millisecond, &c.Retry.BaseDelay)
	e.float(EnvRetryMultiplier, &c.Retry.Multiplier)
	e.duration(EnvRetryMaxDelay, time.Millisecond, &c.Retry.MaxDelay)
	e.float(EnvRetryJitter, &c.Retry.Jitter)

	e.integer(EnvBreakerThreshold, &c.Breaker.FailureThreshold)
	e.duration(EnvBreakerCooldown, time.Millisecond, &c.Breaker.Cooldown)

	e.float(EnvRateLimitRPS, &c.RateLimit.RPS)
	e.integer(EnvRateLimitBurst, &c.RateLimit.Burst)
	e.integer(EnvMaxConcurrent, &c.Concurrency.MaxConcurrent)

	var level string
	if e.str(EnvLogLevel, &level) {
		c.Logging.Level = strings.ToLower(level)
	}

	return errors.Join(e.errs...)
}

func (c *Config) resolveKey(ctx context.Context, o loadOptions) error {
	key := strings.TrimSpace(c.API.Key)
	if key == "" {
		c.API.Key = ""
		return nil
	}

	resolver := o.resolver
	if resolver == nil {
		r, err := secret.DefaultRegistry.NewResolver(map[string]map[string]any{
			secret.FileProviderName: {"dir": o.secretDir},
		}, secret.EnvProviderName, secret.FileProviderName)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrResolveKey, err)
		}
		defer r.Close()
		resolver = r
	}

	resolved, err := resolver.ResolveValue(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResolveKey, err)
	}
	c.API.Key = strings.TrimSpace(resolved)
	return nil
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	lookup LookupEnvFunc
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) fail(name, value string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnv, name, value, err))
}

func (e *envReader) str(name string, dst *string) bool {
	v, ok := e.get(name)
	if ok {
		*dst = v
	}
	return ok
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = n
}

func (e *envReader) float(name string, dst *float64) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = f
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = b
}

// duration accepts a bare integer in unit or a time.ParseDuration string.
func (e *envReader) duration(name string, unit time.Duration, dst *time.Duration) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	d, err := parseDuration(v, unit)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = d
}

func parseDuration(v string, unit time.Duration) (time.Duration, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * unit, nil
	}
	return time.ParseDuration(v)
}
