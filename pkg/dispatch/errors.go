package dispatch

import (
	"fmt"
	"time"

	"github.com/vnykmshr/apiflow/pkg/common/errors"
)

// CallerError reports a request the remote rejected as malformed or
// unauthorized (4xx other than 429). Retrying without changing the request
// is pointless, so the dispatcher fails immediately and records no breaker
// signal.
type CallerError struct {
	StatusCode int
	Body       []byte

	// Cause is set when the request could not even be built, e.g. an
	// invalid method; StatusCode is zero in that case.
	Cause error
}

func (e *CallerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dispatch: invalid request: %v", e.Cause)
	}
	return fmt.Sprintf("dispatch: remote rejected request (status %d)", e.StatusCode)
}

func (e *CallerError) Unwrap() error {
	return errors.ErrCallerFault
}

// OverloadError reports that the remote kept answering 429 until the retry
// budget ran out.
type OverloadError struct {
	Attempts   int
	RetryAfter time.Duration
}

func (e *OverloadError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("dispatch: remote overloaded after %d attempts (retry after %v)", e.Attempts, e.RetryAfter)
	}
	return fmt.Sprintf("dispatch: remote overloaded after %d attempts", e.Attempts)
}

func (e *OverloadError) Unwrap() error {
	return errors.ErrRemoteOverload
}

// RemoteError reports a remote-side failure (5xx or transport error) that
// survived the retry budget. Cause holds the last transport error when the
// failure never produced a status code.
type RemoteError struct {
	StatusCode int
	Attempts   int
	Cause      error
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("dispatch: remote failed after %d attempts (status %d)", e.Attempts, e.StatusCode)
	}
	return fmt.Sprintf("dispatch: remote failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RemoteError) Unwrap() error {
	return errors.ErrRemoteFault
}

// CircuitOpenError reports a request rejected locally because the circuit
// to the remote is open. No transport attempt was made.
type CircuitOpenError struct {
	// RetryIn is the time until the next half-open probe.
	RetryIn time.Duration
}

func (e *CircuitOpenError) Error() string {
	if e.RetryIn > 0 {
		return fmt.Sprintf("dispatch: circuit open (retry in %v)", e.RetryIn)
	}
	return "dispatch: circuit open"
}

func (e *CircuitOpenError) Unwrap() error {
	return errors.ErrCircuitOpen
}

// QuotaWaitError reports a request rejected locally because the quota
// window is exhausted and the wait until reset exceeds the configured
// tolerance. No transport attempt was made.
type QuotaWaitError struct {
	Class OperationClass
	Wait  time.Duration
}

func (e *QuotaWaitError) Error() string {
	return fmt.Sprintf("dispatch: %s quota exhausted (window resets in %v)", e.Class, e.Wait)
}

func (e *QuotaWaitError) Unwrap() error {
	return errors.ErrQuotaExhausted
}
