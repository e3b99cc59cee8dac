// Package errors provides structured error types for swarmreplay.
//
// Every failure in the replay pipeline is fatal, so the value of this package
// is not recovery but precise reporting: each error carries a machine-readable
// code, a human-readable message and, for input problems, the offending data
// row.
//
// # Error Codes
//
//   - SCHEMA, MALFORMED_POSITION, INVALID_RECORD: input log problems
//   - EMPTY_TRAJECTORY: the input log has no data rows
//   - ENCODING: the animation could not be assembled
//   - INVALID_COLOR, INVALID_CONFIG: bad options
//   - IO: reading the input or writing the artifact failed
//
// # Usage
//
//	err := errors.AtRow(errors.ErrCodeMalformedPosition, 12, "position %q", tok)
//	if errors.Is(err, errors.ErrCodeMalformedPosition) {
//	    // Handle malformed input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input log errors
	ErrCodeSchema            Code = "SCHEMA"
	ErrCodeMalformedPosition Code = "MALFORMED_POSITION"
	ErrCodeInvalidRecord     Code = "INVALID_RECORD"
	ErrCodeEmptyTrajectory   Code = "EMPTY_TRAJECTORY"

	// Render errors
	ErrCodeViewport Code = "VIEWPORT"

	// Output errors
	ErrCodeEncoding Code = "ENCODING"

	// Option errors
	ErrCodeInvalidColor  Code = "INVALID_COLOR"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Filesystem errors
	ErrCodeIO Code = "IO"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Row     int    // 1-based data row of the offending record, 0 if not row-specific
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
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

// AtRow creates a new Error attributed to a data row of the input log.
func AtRow(code Code, row int, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Row:     row,
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

// GetRow extracts the offending data row from an error, if available.
func GetRow(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Row
	}
	return 0
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (with row and cause, if any) without
// the code prefix. For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Message
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}
