package errors

import (
	"errors"
	"fmt"
)

// Exit codes for slotplanner
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitConfigError  = 2
	ExitInputError   = 3
	ExitStoreError   = 4
	ExitUnallocated  = 5
)

// PlannerError carries a process exit code alongside the failure.
type PlannerError struct {
	Code    int
	Message string
	Cause   error
}

func (e *PlannerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *PlannerError) ExitCode() int {
	return e.Code
}

// New creates a new PlannerError
func New(code int, message string) *PlannerError {
	return &PlannerError{Code: code, Message: message}
}

// Wrap wraps an existing error with a PlannerError
func Wrap(code int, message string, cause error) *PlannerError {
	return &PlannerError{Code: code, Message: message, Cause: cause}
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *PlannerError {
	return Wrap(ExitConfigError, message, cause)
}

// InputError returns an error for unreadable or invalid station input
func InputError(message string, cause error) *PlannerError {
	return Wrap(ExitInputError, message, cause)
}

// StoreError returns an error for approved-station database operations
func StoreError(op string, cause error) *PlannerError {
	return Wrap(ExitStoreError, fmt.Sprintf("store %s failed", op), cause)
}

// Unallocated reports stations left without a frequency when the caller
// asked for that to be fatal.
func Unallocated(count int) *PlannerError {
	return New(ExitUnallocated, fmt.Sprintf("%d station(s) could not be allocated", count))
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var plannerErr *PlannerError
	if errors.As(err, &plannerErr) {
		return plannerErr.ExitCode()
	}
	return ExitGeneralError
}
