package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorWorker   = 2   // Indicates a worker could not produce its value.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the process was interrupted (e.g., SIGINT).
)

// Group lifecycle errors. They are returned as-is by the orchestrator so
// callers can match them with errors.Is.
var (
	// ErrGroupAlreadyExists is returned when a group is created while one is live.
	ErrGroupAlreadyExists = errors.New("group already exists")
	// ErrNoActiveGroup is returned by task operations when no group exists.
	ErrNoActiveGroup = errors.New("no active group")
	// ErrInvalidGroupName is returned when a group name is empty.
	ErrInvalidGroupName = errors.New("group name must not be empty")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// UnknownFunctionError reports a function identifier that is not part of the
// catalog.
type UnknownFunctionError struct {
	// Name is the identifier as typed by the user.
	Name string
}

// Error returns a formatted message naming the unknown function.
func (e UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

// DispatchError reports that a worker could not be started for a task, either
// because the result conduit or the worker process could not be created. The
// task is not registered when this error is returned.
type DispatchError struct {
	// Task is the name of the task that failed to dispatch.
	Task string
	// Cause is the underlying error.
	Cause error
}

// Error returns a formatted message describing the dispatch failure.
func (e DispatchError) Error() string {
	return fmt.Sprintf("dispatch %q: %v", e.Task, e.Cause)
}

// Unwrap returns the underlying cause.
func (e DispatchError) Unwrap() error { return e.Cause }

// AbnormalTerminationError reports that a worker ended without delivering a
// value. It only affects the task it names.
type AbnormalTerminationError struct {
	// Task is the name of the task whose worker failed.
	Task string
	// PID is the process identifier of the worker.
	PID int
	// Status describes how the worker ended (exit code or signal).
	Status string
}

// Error returns a formatted message describing the termination.
func (e AbnormalTerminationError) Error() string {
	return fmt.Sprintf("component %s (PID: %d) terminated abnormally: %s", e.Task, e.PID, e.Status)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error to the process exit code used when the error ends
// a non-interactive invocation.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	var termErr AbnormalTerminationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case IsContextError(err):
		return ExitErrorCanceled
	case errors.As(err, &termErr):
		return ExitErrorWorker
	default:
		return ExitErrorGeneric
	}
}
