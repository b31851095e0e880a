// Package errors provides structured error types for hydrate.
//
// Every failure produced by the hydration engine carries a machine-readable
// code and, where one exists, the code unit it belongs to. This enables:
//   - Consistent error handling across the CLI and library callers
//   - Classification of failures (corrupt manifest, installer exit, copy failure)
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - UNKNOWN_*: References to things the project does not declare
//   - MANIFEST_*, INSTALL_*, PROPAGATION_*: per-unit hydration failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.ForUnit(errors.ErrCodeManifestCorrupt, unit, cause, "read %s", name)
//	if errors.Is(err, errors.ErrCodeManifestCorrupt) {
//	    // Handle corrupt manifest
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidMode   Code = "INVALID_MODE"

	// Resource not found errors
	ErrCodeUnknownUnit  Code = "UNKNOWN_UNIT"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Per-unit hydration failures
	ErrCodeManifestCorrupt Code = "MANIFEST_CORRUPT"
	ErrCodeInstallFailed   Code = "INSTALL_FAILED"
	ErrCodePropagation     Code = "PROPAGATION_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, the affected unit and an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Unit    string // Code unit path the failure belongs to (optional)
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := string(e.Code)
	if e.Unit != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Code, e.Unit)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
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

// ForUnit creates a new Error tagged with the code unit it occurred in.
// cause may be nil.
func ForUnit(code Code, unit string, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Unit:    unit,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithUnit tags err with the code unit it occurred in. An *Error is copied
// with its Unit set, keeping code and message; any other error is wrapped
// as INTERNAL_ERROR. A nil err stays nil.
func WithUnit(err error, unit string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		tagged := *e
		tagged.Unit = unit
		return &tagged
	}
	return ForUnit(ErrCodeInternal, unit, err, "unexpected error")
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

// UnitOf returns the code unit path recorded on the first *Error in the
// chain that names one, or "" if none does.
func UnitOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Unit != "" {
			return e.Unit
		}
		err = e.Cause
	}
	return ""
}

// Cause returns the cause recorded on the first *Error in the chain, or nil.
func Cause(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Cause
	}
	return nil
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Unit != "" {
			return e.Unit + ": " + e.Message
		}
		return e.Message
	}
	return err.Error()
}
