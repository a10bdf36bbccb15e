package llm

import (
	"errors"
	"fmt"
)

// Error represents a provider-neutral query error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error // Original provider-specific error, if any
}

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeArgument: a required prompt argument is missing or malformed.
	// Detected before any network call; never worth retrying.
	ErrorTypeArgument ErrorType = "argument"
	// ErrorTypeBackend: the underlying endpoint call failed (network, auth,
	// rate limit, provider-side error).
	ErrorTypeBackend ErrorType = "backend"
	// ErrorTypeValidation: the response text could not be decoded into the
	// requested target type. Always distinct from a backend failure so the
	// caller can decide to regenerate instead of treating it as hard failure.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeFormat: the requested delimited block was not present in the
	// response text.
	ErrorTypeFormat ErrorType = "format"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewArgumentError creates a new argument error.
func NewArgumentError(message string, err error) *Error {
	return &Error{Type: ErrorTypeArgument, Message: message, Err: err}
}

// NewBackendError creates a new backend error.
func NewBackendError(message string, err error) *Error {
	return &Error{Type: ErrorTypeBackend, Message: message, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message, Err: err}
}

// NewFormatError creates a new format error.
func NewFormatError(message string) *Error {
	return &Error{Type: ErrorTypeFormat, Message: message}
}

func isErrorType(err error, t ErrorType) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == t
	}
	return false
}

// IsArgumentError checks if an error is an argument error.
func IsArgumentError(err error) bool { return isErrorType(err, ErrorTypeArgument) }

// IsBackendError checks if an error is a backend error.
func IsBackendError(err error) bool { return isErrorType(err, ErrorTypeBackend) }

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool { return isErrorType(err, ErrorTypeValidation) }

// IsFormatError checks if an error is a format error.
func IsFormatError(err error) bool { return isErrorType(err, ErrorTypeFormat) }

// AsBackendError wraps err as a backend error unless it is already one of the
// package's error kinds, so provider adapters do not double-wrap or downgrade
// an argument error into a backend one.
func AsBackendError(message string, err error) error {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return err
	}
	return NewBackendError(message, err)
}
