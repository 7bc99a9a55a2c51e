package resilience_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/resilientapi/apierr"
	"github.com/jonwraymond/resilientapi/resilience"
)

func ExampleCircuitBreaker_Allow() {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: 30 * time.Second,
		Now:          func() time.Time { return now },
	})

	cb.RecordResult(resilience.Proceed, false)
	cb.RecordResult(resilience.Proceed, false)
	fmt.Println(cb.State(), cb.Allow())

	now = now.Add(30 * time.Second)
	trial := cb.Allow()
	fmt.Println(trial, cb.Allow())

	cb.RecordResult(trial, true)
	fmt.Println(cb.State())
	// Output:
	// open reject
	// trial reject
	// closed
}

func ExampleBreakerSet() {
	breakers := resilience.NewBreakerSet(resilience.CircuitBreakerConfig{MaxFailures: 1})

	breakers.RecordResult("GET /risks", resilience.Proceed, false)

	fmt.Println(breakers.Allow("GET /risks"))
	fmt.Println(breakers.Allow("GET /vendors"))
	// Output:
	// reject
	// proceed
}

func ExampleRetry_Execute() {
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		NoJitter:     true,
		Sleep: func(ctx context.Context, d time.Duration) error {
			fmt.Println("wait", d)
			return nil
		},
	})

	err := r.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		fmt.Println("attempt", attempt)
		return apierr.New(apierr.KindServer, "unavailable")
	})
	fmt.Println(apierr.KindOf(err))
	// Output:
	// attempt 1
	// wait 100ms
	// attempt 2
	// wait 200ms
	// attempt 3
	// ServerError
}

func ExampleRetry_ShouldRetry() {
	r := resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})

	fmt.Println(r.ShouldRetry(apierr.KindAuth, 1))
	fmt.Println(r.ShouldRetry(apierr.KindServer, 1))
	fmt.Println(r.ShouldRetry(apierr.KindServer, 3))
	// Output:
	// false
	// true
	// false
}

func ExampleNewExecutor() {
	guard := resilience.NewExecutor(
		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})),
		resilience.WithTimeout(time.Second),
	)

	err := guard.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	fmt.Println(err)
	// Output:
	// <nil>
}
