// Package domainerrors defines the coded error taxonomy shared by services and
// the HTTP layer. Services construct errors with New/Wrap; the transport layer
// translates codes to HTTP statuses with ToHTTPStatus and never leaks internal
// detail for CodeInternal.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	// CodeInvalidInput covers malformed input such as a bad reference-code format.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnauthorized covers missing, invalid, or expired credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers a valid credential with the wrong kind or scope.
	CodeForbidden Code = "forbidden"
	// CodeNotFound covers lookups for records that do not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict covers uniqueness and limit violations.
	CodeConflict Code = "conflict"
	// CodeInvalidState covers transitions invalid for the current status.
	// The message must name the current status.
	CodeInvalidState Code = "invalid_state"
	// CodeInternal covers storage and unexpected failures. Callers see a
	// generic message; detail is logged internally only.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It optionally wraps a cause for logging.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with a user-facing message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the user-facing message of a coded error. Uncoded errors
// collapse to a generic message so internal detail never reaches callers.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to its response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvalidState:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
