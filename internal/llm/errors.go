package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredential means no usable API key is configured. It is detected
// before any network call.
var ErrMissingCredential = errors.New("LLM API key is not configured")

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error that should not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// TerminalError is returned once generation gives up. It carries the last
// underlying failure.
type TerminalError struct {
	Attempts int
	Err      error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// IsTerminal reports whether err is a TerminalError.
func IsTerminal(err error) bool {
	var terminal *TerminalError
	return errors.As(err, &terminal)
}

// classifyStatus wraps err according to an HTTP status code returned by a
// provider.
func classifyStatus(status int, err error) error {
	switch {
	case status == 0:
		return NewTransientError(err)
	case status == 408, status == 409, status == 429:
		return NewTransientError(err)
	case status >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
