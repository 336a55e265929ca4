// Package errors provides structured error types for the uvlkit engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP API, and MCP surfaces
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages with source-location hints
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes map the engine's failure taxonomy:
//   - MALFORMED_MODEL: the UVL text could not be parsed into a feature model
//   - UNKNOWN_FEATURE: an operation parameter names a feature absent from the model
//   - TIMEOUT: a solving/enumeration operation exceeded its deadline
//   - INVALID_SELECTION / UNKNOWN_OPERATION: bad caller input outside the model text
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedModel, "line %d: duplicate feature %q", ln, name)
//	if errors.Is(err, errors.ErrCodeMalformedModel) {
//	    // Handle parse error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "enumeration aborted")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Model text errors (parse time)
	ErrCodeMalformedModel Code = "MALFORMED_MODEL"

	// Operation parameter errors
	ErrCodeUnknownFeature   Code = "UNKNOWN_FEATURE"
	ErrCodeUnknownOperation Code = "UNKNOWN_OPERATION"
	ErrCodeInvalidSelection Code = "INVALID_SELECTION"
	ErrCodeInvalidInput     Code = "INVALID_INPUT"

	// Resource errors (HTTP model store)
	ErrCodeNotFound Code = "NOT_FOUND"

	// Solving errors
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
