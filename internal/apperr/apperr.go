// Package apperr defines the service-level error taxonomy. Services raise a
// typed error at the point of violation; the HTTP boundary maps each code to
// its paired status and a JSON envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the response envelope.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeDomain       = "domain_error"
	CodeInternal     = "internal_error"
)

// Error is a typed domain error.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the HTTP status paired with the error code.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeDomain:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newError(CodeValidation, format, args...) }
func NotFound(format string, args ...any) *Error   { return newError(CodeNotFound, format, args...) }
func Conflict(format string, args ...any) *Error   { return newError(CodeConflict, format, args...) }
func Domain(format string, args ...any) *Error     { return newError(CodeDomain, format, args...) }

// Internal wraps a storage or other unexpected failure. The wrapped error is
// logged at the boundary; only the safe message is surfaced to the caller.
func Internal(err error, message string) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: err}
}

// From extracts the typed error from err, wrapping anything untyped as an
// internal error with a short safe message.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, "operation failed")
}
