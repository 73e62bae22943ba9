package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the apiflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCircuitOpen indicates a request was rejected locally because the
	// circuit to the remote endpoint group is open
	ErrCircuitOpen = errors.New("circuit open")

	// ErrQuotaExhausted indicates the local quota window is exhausted and the
	// required wait exceeds the caller's tolerance
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrRemoteOverload indicates the remote reported overload (HTTP 429)
	ErrRemoteOverload = errors.New("remote overloaded")

	// ErrRemoteFault indicates a remote-side failure (5xx or transport error)
	ErrRemoteFault = errors.New("remote fault")

	// ErrCallerFault indicates the request itself was rejected by the remote
	// (4xx other than 429); retrying without fixing the request is pointless
	ErrCallerFault = errors.New("caller fault")
)

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRemoteOverload) ||
		errors.Is(err, ErrRemoteFault)
}

// IsTemporary returns true if the error indicates a temporary condition,
// including local guard rejections that clear on their own
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, ErrRemoteOverload)
}

// IsLocalRejection returns true if the error was produced without any
// transport attempt (circuit open or quota wait beyond tolerance)
func IsLocalRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrQuotaExhausted)
}

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// OperationError wraps a failure of a named operation with optional context.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for the given module and operation.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches context and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}
