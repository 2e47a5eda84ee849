// Package errors provides structured error types for storybox.
//
// Every failure a story package can produce while being detected, parsed,
// validated or resolved carries a machine-readable [Code]. Callers branch on
// the code instead of matching message text:
//
//	pkg, err := loader.Load(ctx, dir)
//	switch errors.GetCode(err) {
//	case errors.ErrCodeUnknownFormat:
//	    // neither parser recognised the directory
//	case errors.ErrCodeIntegrity:
//	    // the graph is structurally broken
//	}
//
// # Error Codes
//
// Codes fall into four groups:
//   - Format errors: FORMAT, UNKNOWN_FORMAT, TRUNCATED_DATA, EMPTY_PACKAGE,
//     CORRUPT_DATA
//   - Graph errors: INTEGRITY, DANGLING_*, NO_MATCHING_TRANSITION
//   - Asset errors: ASSET_MISSING, ASSET_CORRUPT, KEY
//   - Generic errors: INVALID_*, NOT_FOUND, INTERNAL_ERROR
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Package format errors
	ErrCodeFormat        Code = "FORMAT"
	ErrCodeUnknownFormat Code = "UNKNOWN_FORMAT"
	ErrCodeTruncatedData Code = "TRUNCATED_DATA"
	ErrCodeEmptyPackage  Code = "EMPTY_PACKAGE"
	ErrCodeCorruptData   Code = "CORRUPT_DATA"

	// Graph errors
	ErrCodeIntegrity            Code = "INTEGRITY"
	ErrCodeDanglingReference    Code = "DANGLING_REFERENCE"
	ErrCodeDanglingTransition   Code = "DANGLING_TRANSITION"
	ErrCodeNoMatchingTransition Code = "NO_MATCHING_TRANSITION"

	// Asset errors
	ErrCodeAssetMissing Code = "ASSET_MISSING"
	ErrCodeAssetCorrupt Code = "ASSET_CORRUPT"
	ErrCodeKey          Code = "KEY"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// It unwraps the error chain looking for the outermost *Error and compares
// its code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Has reports whether any *Error in the chain of err carries code. Unlike
// [Is] it keeps looking past the outermost coded error, which matters for
// joined integrity failures.
func Has(err error, code Code) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Code == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if Has(inner, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return Has(u.Unwrap(), code)
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

// IsFormat reports whether err means "this directory is not in the format
// the parser handles", the only failure that lets detection try the next
// parser.
func IsFormat(err error) bool {
	return Is(err, ErrCodeFormat)
}
