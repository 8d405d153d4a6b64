package conversion

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document, job, or artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a job in a terminal state is
	// advanced, or when a stage result does not match the job's current stage.
	ErrInvalidTransition = errors.New("invalid job transition")

	// ErrJobAlreadyClaimed is returned when a worker attempts to claim a job
	// that is not in PENDING status.
	ErrJobAlreadyClaimed = errors.New("job already claimed or not in PENDING status")
)

// ValidationError marks bad caller input. Surfaced as a 4xx response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UpstreamError carries a failure from the external AI service, including
// the raw provider message so it can be stored on the failed job.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// RetryableError wraps transient errors that should trigger a requeue.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
