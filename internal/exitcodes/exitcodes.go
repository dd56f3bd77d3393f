// Package exitcodes defines the process exit codes of sea-e2e and the typed
// errors that select them.
package exitcodes

import (
	"errors"
	"fmt"
)

const (
	Success     = 0 // All tests pass
	TestFailure = 1 // One or more tests failed or timed out
	RuntimeErr  = 2 // Configuration, I/O or worker failures
)

// RuntimeError represents an operational error that should lead to exit code 2.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// TestFailureError represents failed tests (exit code 1).
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// Code maps err to an exit code. Untyped errors count as runtime errors.
func Code(err error) int {
	if err == nil {
		return Success
	}
	var tf *TestFailureError
	if errors.As(err, &tf) {
		return TestFailure
	}
	return RuntimeErr
}
