package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the endpoint recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Decision is the answer to Allow.
type Decision int

const (
	// Proceed lets the attempt through normally.
	Proceed Decision = iota
	// Reject blocks the attempt without network I/O.
	Reject
	// ProceedAsTrial lets the single half-open trial call through.
	ProceedAsTrial
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Reject:
		return "reject"
	case ProceedAsTrial:
		return "trial"
	default:
		return "unknown"
	}
}

// Allowed reports whether the attempt may go to the network.
func (d Decision) Allowed() bool {
	return d == Proceed || d == ProceedAsTrial
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is the cooldown an open circuit waits before allowing a trial.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// OnStateChange is called after the circuit state changes.
	// It runs outside the breaker lock.
	OnStateChange func(from, to State)

	// IsFailure determines if an error returned to Execute counts as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// Now is the time source. Default: time.Now
	Now func() time.Time
}

// CircuitBreaker implements the circuit breaker pattern.
//
// Callers either use Execute, or pair every Allow that admits an attempt with
// exactly one RecordResult (or Release) carrying that Decision.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	successes     int64
	openedAt      time.Time
	lastFailure   time.Time
	trialInFlight bool
}

type transition struct {
	from, to State
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Allow decides whether the next attempt may reach the network.
//
// An open circuit whose cooldown has elapsed moves to half-open here, and the
// first caller to observe half-open receives ProceedAsTrial. Every other
// caller is rejected until that trial is recorded.
func (cb *CircuitBreaker) Allow() Decision {
	cb.mu.Lock()
	var changes []transition
	state := cb.currentStateLocked(&changes)

	decision := Proceed
	switch state {
	case StateOpen:
		decision = Reject
	case StateHalfOpen:
		if cb.trialInFlight {
			decision = Reject
		} else {
			cb.trialInFlight = true
			decision = ProceedAsTrial
		}
	}
	cb.mu.Unlock()

	cb.notify(changes)
	return decision
}

// RecordResult drives the state machine with the outcome of one attempt
// admitted by d, the Decision Allow returned for it.
//
// Results are ignored while the circuit is open, and for rejected attempts.
// While half-open only the trial's result counts: an attempt admitted with
// Proceed before the circuit opened cannot close it.
func (cb *CircuitBreaker) RecordResult(d Decision, success bool) {
	if d == Reject {
		return
	}

	cb.mu.Lock()
	var changes []transition
	now := cb.config.Now()

	switch cb.state {
	case StateClosed:
		if success {
			cb.failures = 0
			cb.successes++
			break
		}
		cb.failures++
		cb.lastFailure = now
		if cb.failures >= cb.config.MaxFailures {
			cb.openedAt = now
			cb.setStateLocked(StateOpen, &changes)
		}

	case StateHalfOpen:
		if d != ProceedAsTrial || !cb.trialInFlight {
			break
		}
		cb.trialInFlight = false
		if success {
			cb.failures = 0
			cb.successes++
			cb.setStateLocked(StateClosed, &changes)
			break
		}
		cb.failures++
		cb.lastFailure = now
		cb.openedAt = now
		cb.setStateLocked(StateOpen, &changes)
	}
	cb.mu.Unlock()

	cb.notify(changes)
}

// Release gives back a half-open trial slot without recording a result.
// Use it when an admitted attempt never reached the endpoint.
func (cb *CircuitBreaker) Release(d Decision) {
	if d != ProceedAsTrial {
		return
	}
	cb.mu.Lock()
	if cb.state == StateHalfOpen {
		cb.trialInFlight = false
	}
	cb.mu.Unlock()
}

// Execute runs the operation through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	d := cb.Allow()
	if !d.Allowed() {
		return ErrCircuitOpen
	}

	err := op(ctx)
	cb.RecordResult(d, !cb.config.IsFailure(err))
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	var changes []transition
	state := cb.currentStateLocked(&changes)
	cb.mu.Unlock()

	cb.notify(changes)
	return state
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	var changes []transition
	cb.failures = 0
	cb.successes = 0
	cb.trialInFlight = false
	cb.openedAt = time.Time{}
	cb.setStateLocked(StateClosed, &changes)
	cb.mu.Unlock()

	cb.notify(changes)
}

func (cb *CircuitBreaker) currentStateLocked(changes *[]transition) State {
	if cb.state == StateOpen && !cb.config.Now().Before(cb.openedAt.Add(cb.config.ResetTimeout)) {
		cb.setStateLocked(StateHalfOpen, changes)
	}
	return cb.state
}

func (cb *CircuitBreaker) setStateLocked(state State, changes *[]transition) {
	if cb.state == state {
		return
	}
	*changes = append(*changes, transition{from: cb.state, to: state})
	cb.state = state
	if state == StateHalfOpen {
		cb.trialInFlight = false
	}
}

func (cb *CircuitBreaker) notify(changes []transition) {
	if cb.config.OnStateChange == nil {
		return
	}
	for _, c := range changes {
		cb.config.OnStateChange(c.from, c.to)
	}
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	var changes []transition
	m := CircuitBreakerMetrics{
		State:               cb.currentStateLocked(&changes),
		ConsecutiveFailures: cb.failures,
		Successes:           cb.successes,
		OpenedAt:            cb.openedAt,
		LastFailure:         cb.lastFailure,
		TrialInFlight:       cb.trialInFlight,
	}
	cb.mu.Unlock()

	cb.notify(changes)
	return m
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State               State
	ConsecutiveFailures int
	Successes           int64
	OpenedAt            time.Time
	LastFailure         time.Time
	TrialInFlight       bool
}
