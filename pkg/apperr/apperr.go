package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeForbidden       Code = "FORBIDDEN"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeBlocked         Code = "BLOCKED"
	CodeUpstream        Code = "UPSTREAM_FAILURE"
	CodeInternal        Code = "INTERNAL"
)

// Error is a coded application error. Code drives the HTTP status at the
// boundary; Cause is for logs only and never serialized.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error { return New(CodeInvalidArgument, msg) }

func NotFound(msg string) error { return New(CodeNotFound, msg) }

func AlreadyExists(msg string) error { return New(CodeAlreadyExists, msg) }

func Unauthenticated(msg string) error { return New(CodeUnauthenticated, msg) }

func Forbidden(msg string) error { return New(CodeForbidden, msg) }

func Blocked(msg string) error { return New(CodeBlocked, msg) }

func Upstream(msg string, cause error) error { return Wrap(CodeUpstream, msg, cause) }

func Internal(msg string) error { return New(CodeInternal, msg) }

// CodeOf extracts the code from err, or CodeUnknown for plain errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// MessageOf returns the safe, user-facing message for err. Plain errors map
// to a generic message so internals do not leak.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}

// HTTPStatus maps an error code to the response status used by handlers.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusBadRequest
	case CodeForbidden, CodeBlocked:
		return http.StatusForbidden
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
