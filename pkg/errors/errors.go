// Package errors provides structured error types for apimsync.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the extractor and publisher
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes are grouped by category:
//   - INVALID_*, AMBIGUOUS_FILE: Input validation failures (bad names,
//     bad configuration, ambiguous file parses)
//   - SCHEMA_ERROR, MISSING_PROPERTY, NOT_JSON_OBJECT: DTO deserialization
//     and shape failures
//   - NOT_FOUND: Classified 404 responses
//   - NETWORK_ERROR: Transport failures
//   - UNSUPPORTED_SKU: Resource collections the service tier does not offer
//   - CONSISTENCY_ERROR, DEPENDENCY_CYCLE: Relationship validation failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidName, "resource name is empty")
//	if errors.Is(err, errors.ErrCodeInvalidName) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", uri)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidName     Code = "INVALID_NAME"
	ErrCodeInvalidRevision Code = "INVALID_REVISION"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeAmbiguousFile   Code = "AMBIGUOUS_FILE"

	// DTO schema errors
	ErrCodeSchema          Code = "SCHEMA_ERROR"
	ErrCodeMissingProperty Code = "MISSING_PROPERTY"
	ErrCodeNotJSONObject   Code = "NOT_JSON_OBJECT"

	// Remote service errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeNetwork        Code = "NETWORK_ERROR"
	ErrCodeUnsupportedSKU Code = "UNSUPPORTED_SKU"

	// Relationship errors
	ErrCodeConsistency Code = "CONSISTENCY_ERROR"
	ErrCodeCycle       Code = "DEPENDENCY_CYCLE"

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

// GetCodeOr returns the error's code, or fallback when the error carries
// none.
func GetCodeOr(err error, fallback Code) Code {
	if code := GetCode(err); code != "" {
		return code
	}
	return fallback
}

// Aggregate combines multiple errors into a single Error whose message
// lists every underlying cause, one per line. Relationship validation uses
// this to surface all mutuality and cycle findings at once.
//
// Returns nil if errs is empty, and the error itself if it holds a single
// entry that is already an *Error.
func Aggregate(code Code, errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		var e *Error
		if errors.As(errs[0], &e) {
			return errs[0]
		}
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("%d validation failures:\n  %s", len(errs), strings.Join(msgs, "\n  ")),
	}
}
