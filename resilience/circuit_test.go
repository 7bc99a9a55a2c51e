package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testClock is a manually advanced time source.
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

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("Initial state = %v, want closed", cb.State())
	}
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.config.MaxFailures != 5 {
		t.Errorf("MaxFailures = %d, want 5", cb.config.MaxFailures)
	}
	if cb.config.ResetTimeout != 30*time.Second {
		t.Errorf("ResetTimeout = %v, want 30s", cb.config.ResetTimeout)
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  3,
		ResetTimeout: time.Minute,
		Now:          clock.Now,
	})

	for i := 0; i < 2; i++ {
		if d := cb.Allow(); d != Proceed {
			t.Fatalf("Allow() = %v, want proceed", d)
		}
		cb.RecordResult(Proceed, false)
		if cb.State() != StateClosed {
			t.Errorf("After %d failures, state = %v, want closed", i+1, cb.State())
		}
	}

	cb.RecordResult(cb.Allow(), false)
	if cb.State() != StateOpen {
		t.Fatalf("After 3 failures, state = %v, want open", cb.State())
	}

	if d := cb.Allow(); d != Reject {
		t.Errorf("Allow() while open = %v, want reject", d)
	}

	m := cb.Metrics()
	if m.ConsecutiveFailures != 3 {
		t.Errorf("ConsecutiveFailures = %d, want 3", m.ConsecutiveFailures)
	}
	if !m.OpenedAt.Equal(clock.Now()) {
		t.Errorf("OpenedAt = %v, want %v", m.OpenedAt, clock.Now())
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3})

	cb.RecordResult(Proceed, false)
	cb.RecordResult(Proceed, false)
	cb.RecordResult(Proceed, true)
	cb.RecordResult(Proceed, false)
	cb.RecordResult(Proceed, false)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed (failures were not consecutive)", cb.State())
	}
	if got := cb.Metrics().ConsecutiveFailures; got != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", got)
	}
}

func TestCircuitBreaker_StaysOpenUntilCooldown(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Second,
		Now:          clock.Now,
	})

	cb.RecordResult(Proceed, false)

	clock.Advance(10*time.Second - time.Nanosecond)
	if d := cb.Allow(); d != Reject {
		t.Errorf("Allow() before cooldown = %v, want reject", d)
	}

	clock.Advance(time.Nanosecond)
	if d := cb.Allow(); d != ProceedAsTrial {
		t.Errorf("Allow() at cooldown = %v, want trial", d)
	}
}

func TestCircuitBreaker_SingleTrialInHalfOpen(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Now:          clock.Now,
	})

	cb.RecordResult(Proceed, false)
	clock.Advance(time.Second)

	if d := cb.Allow(); d != ProceedAsTrial {
		t.Fatalf("first Allow() = %v, want trial", d)
	}
	for i := 0; i < 3; i++ {
		if d := cb.Allow(); d != Reject {
			t.Errorf("Allow() with trial in flight = %v, want reject", d)
		}
	}
	if !cb.Metrics().TrialInFlight {
		t.Error("TrialInFlight = false, want true")
	}
}

func TestCircuitBreaker_TrialSuccessCloses(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Second,
		Now:          clock.Now,
	})

	cb.RecordResult(Proceed, false)
	cb.RecordResult(Proceed, false)
	clock.Advance(time.Second)

	cb.RecordResult(cb.Allow(), true)

	if cb.State() != StateClosed {
		t.Errorf("state after successful trial = %v, want closed", cb.State())
	}
	m := cb.Metrics()
	if m.ConsecutiveFailures != 0 || m.TrialInFlight {
		t.Errorf("metrics after close = %+v, want counters reset", m)
	}
	if d := cb.Allow(); d != Proceed {
		t.Errorf("Allow() after close = %v, want proceed", d)
	}
}

func TestCircuitBreaker_StaleResultCannotDecideTrial(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: 30 * time.Second,
		Now:          clock.Now,
	})

	slow := cb.Allow()
	if slow != Proceed {
		t.Fatalf("Allow() while closed = %v, want proceed", slow)
	}
	cb.RecordResult(cb.Allow(), false)
	cb.RecordResult(cb.Allow(), false)
	clock.Advance(30 * time.Second)

	trial := cb.Allow()
	if trial != ProceedAsTrial {
		t.Fatalf("Allow() after cooldown = %v, want trial", trial)
	}

	// The attempt admitted before the circuit opened finishes first.
	cb.RecordResult(slow, true)
	if s := cb.State(); s != StateHalfOpen {
		t.Fatalf("state after stale success = %v, want half-open", s)
	}
	if d := cb.Allow(); d != Reject {
		t.Errorf("Allow() with trial undecided = %v, want reject", d)
	}

	cb.RecordResult(Reject, true)
	if s := cb.State(); s != StateHalfOpen {
		t.Fatalf("state after rejected result = %v, want half-open", s)
	}

	cb.RecordResult(trial, false)
	if s := cb.State(); s != StateOpen {
		t.Errorf("state after failed trial = %v, want open", s)
	}
}

func TestCircuitBreaker_TrialFailureRestartsCooldown(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Second,
		Now:          clock.Now,
	})

	cb.RecordResult(Proceed, false)
	clock.Advance(10 * time.Second)

	cb.RecordResult(cb.Allow(), false)

	if cb.State() != StateOpen {
		t.Fatalf("state after failed trial = %v, want open", cb.State())
	}
	if got := cb.Metrics().OpenedAt; !got.Equal(clock.Now()) {
		t.Errorf("OpenedAt = %v, want restart at %v", got, clock.Now())
	}

	clock.Advance(5 * time.Second)
	if d := cb.Allow(); d != Reject {
		t.Errorf("Allow() mid-cooldown = %v, want reject", d)
	}

	clock.Advance(5 * time.Second)
	if d := cb.Allow(); d != ProceedAsTrial {
		t.Errorf("Allow() after restarted cooldown = %v, want trial", d)
	}
}

func TestCircuitBreaker_IgnoresResultsWhileOpen(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Minute,
		Now:          clock.Now,
	})

	cb.RecordResult(Proceed, false)
	opened := cb.Metrics().OpenedAt

	clock.Advance(time.Second)
	cb.RecordResult(Proceed, true)
	cb.RecordResult(Proceed, false)

	m := cb.Metrics()
	if m.State != StateOpen {
		t.Errorf("state = %v, want open", m.State)
	}
	if !m.OpenedAt.Equal(opened) {
		t.Errorf("OpenedAt moved to %v, want %v", m.OpenedAt, opened)
	}
}

func TestCircuitBreaker_ReleaseFreesTrial(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Now:          clock.Now,
	})

	cb.RecordResult(Proceed, false)
	clock.Advance(time.Second)

	d := cb.Allow()
	cb.Release(d)

	if cb.State() != StateHalfOpen {
		t.Errorf("state after release = %v, want half-open", cb.State())
	}
	if d := cb.Allow(); d != ProceedAsTrial {
		t.Errorf("Allow() after release = %v, want trial", d)
	}

	// Releasing a non-trial decision is a no-op.
	cb.Release(Proceed)
	if d := cb.Allow(); d != Reject {
		t.Errorf("Allow() = %v, want reject while trial still in flight", d)
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	})

	testErr := errors.New("test error")
	for i := 0; i < 2; i++ {
		err := cb.Execute(context.Background(), func(ctx context.Context) error {
			return testErr
		})
		if err != testErr {
			t.Errorf("Execute() error = %v, want %v", err, testErr)
		}
	}

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("Should not be called when circuit is open")
		return nil
	})
	if err != ErrCircuitOpen {
		t.Errorf("Execute() when open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	ignored := errors.New("ignored error")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure: func(err error) bool {
			return err != nil && err != ignored
		},
	})

	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return ignored
	})

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed (error not a failure)", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})

	cb.RecordResult(Proceed, false)
	if cb.State() != StateOpen {
		t.Fatal("Circuit should be open")
	}

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("State after Reset = %v, want closed", cb.State())
	}
	if d := cb.Allow(); d != Proceed {
		t.Errorf("Allow() after Reset = %v, want proceed", d)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	clock := newTestClock()
	var mu sync.Mutex
	var transitions []struct{ from, to State }

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Now:          clock.Now,
		OnStateChange: func(from, to State) {
			mu.Lock()
			transitions = append(transitions, struct{ from, to State }{from, to})
			mu.Unlock()
		},
	})

	cb.RecordResult(Proceed, false)
	clock.Advance(time.Second)
	cb.RecordResult(cb.Allow(), true)

	want := []struct{ from, to State }{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %v->%v, want %v->%v",
				i, transitions[i].from, transitions[i].to, want[i].from, want[i].to)
		}
	}
}

func TestCircuitBreaker_OnStateChangeMayReadState(t *testing.T) {
	var cb *CircuitBreaker
	var seen atomic.Int32
	cb = NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		OnStateChange: func(from, to State) {
			// Must not deadlock.
			_ = cb.State()
			seen.Add(1)
		},
	})

	cb.RecordResult(Proceed, false)

	if seen.Load() != 1 {
		t.Errorf("callback invocations = %d, want 1", seen.Load())
	}
}

func TestCircuitBreaker_ConcurrentTrial(t *testing.T) {
	clock := newTestClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Now:          clock.Now,
	})
	cb.RecordResult(Proceed, false)
	clock.Advance(time.Second)

	var trials atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cb.Allow() == ProceedAsTrial {
				trials.Add(1)
			}
		}()
	}
	wg.Wait()

	if n := trials.Load(); n != 1 {
		t.Errorf("trials granted = %d, want exactly 1", n)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestDecision(t *testing.T) {
	tests := []struct {
		d       Decision
		str     string
		allowed bool
	}{
		{Proceed, "proceed", true},
		{Reject, "reject", false},
		{ProceedAsTrial, "trial", true},
	}

	for _, tt := range tests {
		if got := tt.d.String(); got != tt.str {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.d, got, tt.str)
		}
		if got := tt.d.Allowed(); got != tt.allowed {
			t.Errorf("Decision(%s).Allowed() = %v, want %v", tt.str, got, tt.allowed)
		}
	}
}
