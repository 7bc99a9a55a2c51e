package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete client configuration.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Cache       CacheConfig       `yaml:"cache"`
	Retry       RetryConfig       `yaml:"retry"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// APIConfig describes the upstream API.
type APIConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// Key is the API key, a ${ENV} reference or a secretref. It is
	// resolved during Load and never printed.
	Key string `yaml:"key"`

	// AuthHeader is the header that carries Key.
	AuthHeader string `yaml:"auth_header" validate:"required"`

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
	MaxSize int           `yaml:"max_size" validate:"gt=0"`
}

// RetryConfig configures retry with backoff.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1,lte=20"`
	BaseDelay   time.Duration `yaml:"base_delay" validate:"gt=0"`
	MaxDelay    time.Duration `yaml:"max_delay" validate:"gtefield=BaseDelay"`
	Multiplier  float64       `yaml:"multiplier" validate:"gte=1"`
	Jitter      float64       `yaml:"jitter" validate:"gte=0,lte=1"`
}

// BreakerConfig configures the per-endpoint circuit breakers.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" validate:"gte=1"`
	Cooldown         time.Duration `yaml:"cooldown" validate:"gt=0"`
}

// RateLimitConfig configures the outbound token bucket. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

// ConcurrencyConfig bounds in-flight attempts. 0 disables the bound.
type ConcurrencyConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" validate:"gte=0"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Defaults.
const (
	DefaultBaseURL          = "https://cyber-risk.upguard.com/api/public"
	DefaultAuthHeader       = "Authorization"
	DefaultTimeout          = 120 * time.Second
	DefaultCacheTTL         = 300 * time.Second
	DefaultCacheMaxSize     = 1000
	DefaultMaxAttempts      = 3
	DefaultBaseDelay        = time.Second
	DefaultMaxDelay         = 30 * time.Second
	DefaultMultiplier       = 2.0
	DefaultJitter           = 0.2
	DefaultFailureThreshold = 5
	DefaultCooldown         = 30 * time.Second
	DefaultLogLevel         = "info"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			AuthHeader: DefaultAuthHeader,
			Timeout:    DefaultTimeout,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     DefaultCacheTTL,
			MaxSize: DefaultCacheMaxSize,
		},
		Retry: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			BaseDelay:   DefaultBaseDelay,
			MaxDelay:    DefaultMaxDelay,
			Multiplier:  DefaultMultiplier,
			Jitter:      DefaultJitter,
		},
		Breaker: BreakerConfig{
			FailureThreshold: DefaultFailureThreshold,
			Cooldown:         DefaultCooldown,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}

var validate = validator.New()

// Validate checks every field constraint. The returned error wraps
// ErrInvalidConfig and names each failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// HasKey reports whether an API key is configured.
func (c Config) HasKey() bool {
	return strings.TrimSpace(c.API.Key) != ""
}

// String renders the configuration without the API key.
func (c Config) String() string {
	key := "[MISSING]"
	if c.HasKey() {
		key = "[REDACTED]"
	}
	return fmt.Sprintf(
		"api{base_url=%s key=%s timeout=%s} cache{enabled=%t ttl=%s max_size=%d} "+
			"retry{max_attempts=%d base_delay=%s max_delay=%s multiplier=%g jitter=%g} "+
			"breaker{failure_threshold=%d cooldown=%s} rate_limit{rps=%g burst=%d} "+
			"concurrency{max=%d} logging{level=%s}",
		c.API.BaseURL, key, c.API.Timeout,
		c.Cache.Enabled, c.Cache.TTL, c.Cache.MaxSize,
		c.Retry.MaxAttempts, c.Retry.BaseDelay, c.Retry.MaxDelay, c.Retry.Multiplier, c.Retry.Jitter,
		c.Breaker.FailureThreshold, c.Breaker.Cooldown,
		c.RateLimit.RPS, c.RateLimit.Burst,
		c.Concurrency.MaxConcurrent, c.Logging.Level,
	)
}

// GoString renders the configuration without the API key.
func (c Config) GoString() string {
	return "config.Config{" + c.String() + "}"
}
