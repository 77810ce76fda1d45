package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// StoreError Tests
// -----------------------------------------------------------------------------

func TestStoreError_Error(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  *StoreError
		want string
	}{
		{
			name: "no context",
			err:  NewStoreError("list tasks", nil),
			want: "store error: list tasks",
		},
		{
			name: "entity and cause",
			err:  NewStoreError("list tasks", cause).WithEntity("task"),
			want: "store error [entity=task]: list tasks: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStoreError_Is(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf("tick: %w", NewStoreError("list meetings", cause))

	if !Is(err, ErrStoreUnavailable) {
		t.Error("StoreError should match ErrStoreUnavailable")
	}
	if !Is(err, context.DeadlineExceeded) {
		t.Error("StoreError should match its cause")
	}
	var storeErr *StoreError
	if !As(err, &storeErr) {
		t.Fatal("As should find the StoreError")
	}
	if !IsRetryable(err) {
		t.Error("store errors should default to retryable")
	}
	if IsRetryable(NewStoreError("decode", nil).WithRetryable(false)) {
		t.Error("WithRetryable(false) should stick")
	}
}

// -----------------------------------------------------------------------------
// CompletionError Tests
// -----------------------------------------------------------------------------

func TestCompletionError_StatusCodeRetryable(t *testing.T) {
	tests := []struct {
		code      int
		retryable bool
	}{
		{400, false},
		{401, false},
		{429, true},
		{500, true},
		{529, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := NewCompletionError("api error", nil).WithStatusCode(tt.code)
			if got := IsRetryable(err); got != tt.retryable {
				t.Errorf("IsRetryable(status %d) = %v, want %v", tt.code, got, tt.retryable)
			}
		})
	}
}

func TestCompletionError_Error(t *testing.T) {
	err := NewCompletionError("API error", errors.New("overloaded")).
		WithBackend("anthropic").
		WithStatusCode(529)
	want := "completion error [backend=anthropic, status=529]: API error: overloaded"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrCompletionFailed) {
		t.Error("CompletionError should match ErrCompletionFailed")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("task", 42)
	if got := err.Error(); got != "task 42 not found" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, ErrTaskNotFound) {
		t.Error("task NotFoundError should match ErrTaskNotFound")
	}
	if Is(err, ErrEmployeeNotFound) {
		t.Error("task NotFoundError should not match ErrEmployeeNotFound")
	}
	if !Is(NewNotFoundError("employee", 1), ErrEmployeeNotFound) {
		t.Error("employee NotFoundError should match ErrEmployeeNotFound")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("must be positive").WithField("max_workload").WithValue(-1)
	want := "validation error [field=max_workload, value=-1]: must be positive"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("rationale completion", 2*time.Minute).WithCause(context.DeadlineExceeded)
	want := "timeout error: rationale completion (timeout: 2m0s): context deadline exceeded"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrTimeout) {
		t.Error("TimeoutError should match ErrTimeout")
	}
	if IsRetryable(err) {
		t.Error("TimeoutError should not be retryable")
	}
}

// -----------------------------------------------------------------------------
// Helper Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"store", NewStoreError("list tasks", nil), true},
		{"store marked permanent", NewStoreError("decode", nil).WithRetryable(false), false},
		{"completion 503 wrapped", Wrap(NewCompletionError("x", nil).WithStatusCode(503), "rationale"), true},
		{"completion 400", NewCompletionError("x", nil).WithStatusCode(400), false},
		{"timeout", NewTimeoutError("rationale", time.Second), false},
		{"joined", Join(ErrCanceled, NewStoreError("x", nil)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	err := Wrapf(ErrNoCandidates, "recommend task %d", 3)
	if err.Error() != "recommend task 3: no candidate employees" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	if !Is(err, ErrNoCandidates) {
		t.Error("Wrapf should preserve the chain")
	}
}
