// Package apperr defines the error taxonomy for the request pipeline.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error into the pipeline's taxonomy.
type Code string

const (
	// CodeUnauthenticated covers missing, malformed, expired, and invalid
	// credentials.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeForbidden marks an authenticated caller without entitlement.
	CodeForbidden Code = "FORBIDDEN"
	// CodeInternal covers any unexpected fault, including downstream
	// service failures.
	CodeInternal Code = "INTERNAL"
)

// Error carries a taxonomy code, a client-safe message, and the underlying
// cause. The cause is for logs only and never reaches the caller.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Unauthenticated builds a 401-class error.
func Unauthenticated(message string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: message}
}

// Forbidden builds a 403-class error.
func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// Internal builds a 500-class error wrapping its cause. The client-facing
// message stays generic regardless of the cause.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "internal server error", Cause: cause}
}

// HTTPStatus maps an error to its response status. Unknown errors are
// treated as internal.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the message safe to send to the caller. Internal
// detail never leaks: anything outside the taxonomy collapses to a generic
// message.
func ClientMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "internal server error"
	}
	return appErr.Message
}
