package breaker

import (
	"sync"
	"time"

	"github.com/vnykmshr/apiflow/pkg/common/validation"
)

// State is the circuit state for one remote endpoint group.
type State int

const (
	// StateClosed lets traffic flow normally.
	StateClosed State = iota

	// StateOpen rejects traffic immediately without attempting transport.
	StateOpen

	// StateHalfOpen lets a single probe through to test recovery.
	StateHalfOpen
)

// String returns a human-readable state name.
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

// Breaker suspends traffic to a failing endpoint group after a run of
// infrastructure failures and re-probes it after a cooldown. Callers report
// only infrastructure failures (timeouts, connection resets, 5xx); errors
// that blame the request itself are no evidence the remote is unhealthy and
// must never reach OnFailure.
type Breaker interface {
	// Allow reports whether a call may be attempted now. The Open to
	// HalfOpen transition is evaluated lazily here, not by a background
	// timer, and exactly one caller is granted the half-open probe.
	Allow() bool

	// OnSuccess records a successful call. While closed it resets the
	// consecutive failure count; a half-open probe success closes the
	// circuit.
	OnSuccess()

	// OnFailure records an infrastructure failure. A half-open probe
	// failure reopens the circuit and restarts the recovery timer.
	OnFailure()

	// Cancel surrenders a granted half-open probe without recording an
	// outcome, so a later caller may probe instead. Callers that obtain
	// Allow but abandon the attempt before it resolves (cancellation,
	// local rejection) must call exactly one of OnSuccess, OnFailure, or
	// Cancel. No-op outside an active probe.
	Cancel()

	// State returns the current circuit state.
	State() State

	// Status returns a read-only snapshot for health reporting.
	Status() Status
}

// Status is a read-only snapshot of a breaker.
type Status struct {
	State               State
	ConsecutiveFailures int

	// RetryIn is the time until the next half-open probe; zero unless open.
	RetryIn time.Duration
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Breaker.
type Config struct {
	// FailureThreshold is the number of consecutive infrastructure
	// failures that opens the circuit.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a
	// half-open probe is allowed.
	RecoveryTimeout time.Duration

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

type circuitBreaker struct {
	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
	probing             bool

	failureThreshold int
	recoveryTimeout  time.Duration
	clock            Clock
}

// NewSafe creates a new circuit breaker with validation that returns an
// error instead of panicking.
func NewSafe(failureThreshold int, recoveryTimeout time.Duration) (Breaker, error) {
	return NewWithConfigSafe(Config{
		FailureThreshold: failureThreshold,
		RecoveryTimeout:  recoveryTimeout,
		Clock:            SystemClock{},
	})
}

// NewWithConfigSafe creates a new circuit breaker from a Config with
// validation that returns an error instead of panicking.
func NewWithConfigSafe(config Config) (Breaker, error) {
	if err := validation.ValidatePositive("breaker", "failureThreshold", config.FailureThreshold); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("breaker", "recoveryTimeout", config.RecoveryTimeout); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &circuitBreaker{
		state:            StateClosed,
		failureThreshold: config.FailureThreshold,
		recoveryTimeout:  config.RecoveryTimeout,
		clock:            config.Clock,
	}, nil
}

// Allow reports whether a call may be attempted now.
func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) >= cb.recoveryTimeout {
			cb.state = StateHalfOpen
			cb.probing = true
			return true
		}
		return false
	case StateHalfOpen:
		if !cb.probing {
			cb.probing = true
			return true
		}
		return false
	default:
		return false
	}
}

// OnSuccess records a successful call.
func (cb *circuitBreaker) OnSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.state = StateClosed
		cb.consecutiveFailures = 0
		cb.probing = false
	case StateClosed:
		cb.consecutiveFailures = 0
	case StateOpen:
		// A straggler that was in flight before the circuit opened; the
		// recovery timer decides when to re-probe, not this result.
	}
}

// OnFailure records an infrastructure failure.
func (cb *circuitBreaker) OnFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.state = StateOpen
		cb.openedAt = cb.clock.Now()
		cb.probing = false
	case StateClosed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.failureThreshold {
			cb.state = StateOpen
			cb.openedAt = cb.clock.Now()
		}
	case StateOpen:
		// Straggler; the circuit is already open.
	}
}

// Cancel surrenders a granted half-open probe without recording an outcome.
func (cb *circuitBreaker) Cancel() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.probing {
		cb.probing = false
	}
}

// State returns the current circuit state.
func (cb *circuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Status returns a read-only snapshot for health reporting.
func (cb *circuitBreaker) Status() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := Status{
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
	}

	if cb.state == StateOpen {
		retryIn := cb.recoveryTimeout - cb.clock.Now().Sub(cb.openedAt)
		if retryIn > 0 {
			status.RetryIn = retryIn
		}
	}

	return status
}
