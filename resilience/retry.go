package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/resilientapi/apierr"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// DefaultJitterFraction is the jitter applied when RetryConfig.JitterFraction is unset.
const DefaultJitterFraction = 0.2

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps the maximum delay between retries, including
	// server-provided Retry-After hints.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// JitterFraction spreads each delay uniformly over +/- the fraction.
	// Default: 0.2
	JitterFraction float64

	// NoJitter disables jitter.
	NoJitter bool

	// Classify maps an attempt error to its kind.
	// Default: Classify
	Classify func(err error) apierr.Kind

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Sleep waits between attempts. Default: a context-aware timer.
	Sleep SleepFunc

	// Rand returns a value in [0, 1) for jitter. Default: math/rand/v2.
	Rand func() float64
}

// Retry implements retry with backoff driven by error classification.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.MaxDelay < config.InitialDelay {
		config.MaxDelay = config.InitialDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.JitterFraction <= 0 {
		config.JitterFraction = DefaultJitterFraction
	}
	if config.JitterFraction > 1 {
		config.JitterFraction = 1
	}
	if config.Classify == nil {
		config.Classify = Classify
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}
	if config.Rand == nil {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		config.Rand = rand.Float64
	}

	return &Retry{config: config}
}

// ShouldRetry reports whether another attempt follows attempt, which failed
// with kind. It is false once attempt reaches MaxAttempts or kind is fatal.
func (r *Retry) ShouldRetry(kind apierr.Kind, attempt int) bool {
	if attempt >= r.config.MaxAttempts {
		return false
	}
	return kind.Retryable()
}

// BaseDelay returns the backoff delay after attempt without jitter.
// It never decreases as attempt grows and never exceeds MaxDelay.
func (r *Retry) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var delay float64
	switch r.config.Strategy {
	case BackoffConstant:
		delay = float64(r.config.InitialDelay)

	case BackoffLinear:
		delay = float64(r.config.InitialDelay) * float64(attempt)

	default:
		delay = float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	}

	// Cap at max delay; float math may overflow for large attempts.
	if math.IsInf(delay, 0) || math.IsNaN(delay) || delay > float64(r.config.MaxDelay) {
		return r.config.MaxDelay
	}
	return time.Duration(delay)
}

// NextDelay returns the delay to wait after attempt, with jitter applied.
// The result is within [0, MaxDelay].
func (r *Retry) NextDelay(attempt int) time.Duration {
	delay := r.BaseDelay(attempt)
	if r.config.NoJitter || delay <= 0 {
		return delay
	}

	spread := (2*r.config.Rand() - 1) * r.config.JitterFraction
	jittered := time.Duration(float64(delay) * (1 + spread))
	if jittered < 0 {
		jittered = 0
	}
	if jittered > r.config.MaxDelay {
		jittered = r.config.MaxDelay
	}
	return jittered
}

// DelayFor returns the delay to wait after attempt failed with err.
// A rate-limit error carrying a Retry-After hint uses the hint, clamped to
// MaxDelay.
func (r *Retry) DelayFor(err error, attempt int) time.Duration {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) && apiErr.Kind == apierr.KindRateLimited && apiErr.RetryAfter > 0 {
		if apiErr.RetryAfter > r.config.MaxDelay {
			return r.config.MaxDelay
		}
		return apiErr.RetryAfter
	}
	return r.NextDelay(attempt)
}

// Execute runs op until it succeeds, fails with a fatal kind, or MaxAttempts
// is reached. op receives the 1-based attempt number. The last error is
// returned unchanged; a context cancelled while waiting returns ctx.Err().
func (r *Retry) Execute(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}

		if !r.ShouldRetry(r.config.Classify(err), attempt) {
			return err
		}

		delay := r.DelayFor(err, attempt)

		// Callback before retry
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if sleepErr := r.config.Sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
