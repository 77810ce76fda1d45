// Package errors provides centralized error definitions and error handling
// utilities for taskwatch. It defines sentinel errors, typed errors with
// context, and classification helpers.
//
// # Error Types
//
// Domain-specific errors:
//   - StoreError: a task, employee or meeting store call failed
//   - CompletionError: the completion backend failed or rejected a request
//
// Semantic errors:
//   - NotFoundError: an entity with the given id does not exist
//   - ValidationError: invalid input handed to a pure function or command
//   - TimeoutError: an operation exceeded its deadline
//
// # Usage
//
//	err := errors.NewStoreError("list tasks", cause).WithEntity("task")
//	if errors.IsRetryable(err) { ... }
//
//	var storeErr *errors.StoreError
//	if errors.As(err, &storeErr) { ... }
//
// # Failure Classes
//
// Store failures are transient: the monitor logs them and skips the pass.
// Completion failures are advisory: the recommendation keeps its ranking and
// falls back to a generated rationale. Invalid input to the pure scoring and
// detection functions is a caller bug and is returned immediately.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Entity sentinel errors
var (
	// ErrTaskNotFound indicates that a task could not be found.
	ErrTaskNotFound = New("task not found")
	// ErrEmployeeNotFound indicates that an employee could not be found.
	ErrEmployeeNotFound = New("employee not found")
	// ErrNoCandidates indicates that a recommendation was requested for an
	// empty employee pool.
	ErrNoCandidates = New("no candidate employees")
)

// Collaborator sentinel errors
var (
	// ErrStoreUnavailable indicates that a backing store could not be reached.
	ErrStoreUnavailable = New("store unavailable")
	// ErrCompletionFailed indicates that the completion backend failed.
	ErrCompletionFailed = New("completion failed")
	// ErrDeliveryFailed indicates that a notification could not be delivered.
	ErrDeliveryFailed = New("notification delivery failed")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// baseError carries the message, cause and retry classification shared by
// the typed errors below.
type baseError struct {
	message   string
	cause     error
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// StoreError represents a failed call to a task, employee or meeting store.
// Store failures default to retryable since the next tick may succeed.
//
// Example:
//
//	err := errors.NewStoreError("list tasks", cause).WithEntity("task")
//	fmt.Println(err) // "store error [entity=task]: list tasks: <cause>"
type StoreError struct {
	baseError
	Entity string
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation string, cause error) *StoreError {
	return &StoreError{
		baseError: baseError{
			message:   operation,
			cause:     cause,
			retryable: true,
		},
	}
}

// WithEntity adds the entity kind ("task", "employee", "meeting").
func (e *StoreError) WithEntity(entity string) *StoreError {
	e.Entity = entity
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *StoreError) WithRetryable(r bool) *StoreError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *StoreError) Error() string {
	var parts []string
	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}
	return formatPrefixed("store error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *StoreError) Is(target error) bool {
	if _, ok := target.(*StoreError); ok {
		return true
	}
	if target == ErrStoreUnavailable {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// CompletionError represents a failure from the completion backend.
// Server-side and rate-limit failures are retryable; client errors are not.
type CompletionError struct {
	baseError
	Backend    string
	StatusCode int
}

// NewCompletionError creates a new CompletionError.
func NewCompletionError(message string, cause error) *CompletionError {
	return &CompletionError{
		baseError: baseError{
			message: message,
			cause:   cause,
		},
	}
}

// WithBackend adds the backend name to the error context.
func (e *CompletionError) WithBackend(backend string) *CompletionError {
	e.Backend = backend
	return e
}

// WithStatusCode records the HTTP status and derives retryability from it:
// 429 and 5xx responses are retryable.
func (e *CompletionError) WithStatusCode(code int) *CompletionError {
	e.StatusCode = code
	e.retryable = code == 429 || code >= 500
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *CompletionError) WithRetryable(r bool) *CompletionError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *CompletionError) Error() string {
	var parts []string
	if e.Backend != "" {
		parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	return formatPrefixed("completion error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *CompletionError) Is(target error) bool {
	if _, ok := target.(*CompletionError); ok {
		return true
	}
	if target == ErrCompletionFailed {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents an entity that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("task", 42)
//	fmt.Println(err) // "task 42 not found"
type NotFoundError struct {
	baseError
	Entity string
	ID     int64
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message: fmt.Sprintf("%s %d not found", entity, id),
		},
		Entity: entity,
		ID:     id,
	}
}

// Is checks if this error matches the target. A task NotFoundError matches
// ErrTaskNotFound and an employee one matches ErrEmployeeNotFound.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	switch e.Entity {
	case "task":
		return target == ErrTaskNotFound
	case "employee":
		return target == ErrEmployeeNotFound
	}
	return false
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("task is required").WithField("task")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message: message,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return formatPrefixed("validation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return target == ErrInvalidInput
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("rationale completion", 120*time.Second)
//	fmt.Println(err) // "timeout error: rationale completion (timeout: 2m0s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message: operation,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if target == ErrTimeout {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ IsRetryable() bool }
	return As(err, &r) && r.IsRetryable()
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func formatPrefixed(kind string, parts []string, message string, cause error) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}
