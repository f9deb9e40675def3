package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError wraps a recovered panic value together with the stack trace
// captured at the recovery site.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and converts a panic into a *PanicError. Use at goroutine
// boundaries where a panic would otherwise take down the process.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Value:      r,
				StackTrace: string(debug.Stack()),
			}
		}
	}()
	return fn()
}

// TransientError marks a failure that is expected to succeed on retry,
// such as a publish during a connection blip.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient.
func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// MultiError collects multiple errors from independent operations,
// e.g. shutting down several components.
type MultiError struct {
	Errors []error
}

// Append adds err to the collection if it is non-nil.
func (m *MultiError) Append(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil when no errors were collected, the single error
// when exactly one was, and the MultiError itself otherwise.
func (m *MultiError) ErrorOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	parts := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(m.Errors), strings.Join(parts, "; "))
}

func (m *MultiError) Unwrap() []error {
	return m.Errors
}
