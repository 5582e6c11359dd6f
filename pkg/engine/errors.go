// Package engine runs detection tasks against the managed components
// with bounded parallelism and retry of transient transport failures.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass classifies a task failure for retry logic.
type ErrorClass string

const (
	// ErrorClassTransient indicates a temporary failure that may succeed
	// on retry, such as a network timeout.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent indicates a non-recoverable failure, such as
	// bad credentials or a malformed response.
	ErrorClassPermanent ErrorClass = "permanent"
)

// TaskError is a classified task failure.
type TaskError struct {
	// Class is the error classification for retry logic.
	Class ErrorClass

	// Message describes the failure.
	Message string

	// Err is the underlying error.
	Err error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Class, e.Message)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a transient task error.
func NewTransientError(message string, err error) *TaskError {
	return &TaskError{Class: ErrorClassTransient, Message: message, Err: err}
}

// NewPermanentError creates a permanent task error.
func NewPermanentError(message string, err error) *TaskError {
	return &TaskError{Class: ErrorClassPermanent, Message: message, Err: err}
}

// IsTransient reports whether err should be retried. Besides explicit
// TaskError classification it honors the Temporary() convention used by
// the transport errors and net.Error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		return taskErr.Class == ErrorClassTransient
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}
