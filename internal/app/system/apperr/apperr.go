// internal/app/system/apperr/apperr.go
//
// Package apperr defines the typed failures returned by the lifecycle engines
// and the authentication flow. Every error carries a stable machine-readable
// code; handlers map the kind to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindDuplicate
	KindLocked
	KindRateLimited
)

// Common codes shared across features.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeInternal    = "INTERNAL_ERROR"
	CodeRateLimited = "TOO_MANY_REQUESTS"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a typed application failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details []FieldError
	Err     error // wrapped cause; never sent to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindDuplicate:
		return http.StatusConflict
	case KindLocked:
		return http.StatusLocked
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Title is the short human label sent as the "error" field.
func (e *Error) Title() string {
	switch e.Kind {
	case KindValidation:
		return "Validation failed"
	case KindNotFound:
		return "Not found"
	case KindConflict:
		return "Operation not allowed"
	case KindUnauthorized:
		return "Unauthorized"
	case KindDuplicate:
		return "Already exists"
	case KindLocked:
		return "Account locked"
	case KindRateLimited:
		return "Too many requests"
	default:
		return "Internal server error"
	}
}

// Validation builds a 400 input error.
func Validation(message string, details ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Details: details}
}

// NotFound builds a 404 error with the given code.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict builds a lifecycle-state error.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Unauthorized builds a 401 error.
func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

// Duplicate builds a 409 error.
func Duplicate(code, message string) *Error {
	return &Error{Kind: KindDuplicate, Code: code, Message: message}
}

// Locked builds a 423 error.
func Locked(code, message string) *Error {
	return &Error{Kind: KindLocked, Code: code, Message: message}
}

// RateLimited builds a 429 error.
func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Code: CodeRateLimited, Message: message}
}

// Internal wraps an infrastructure failure under a generic code.
func Internal(code string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: "An internal error occurred", Err: err}
}

// As extracts an *Error from err. Errors that are not typed become internal
// errors with CodeInternal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(CodeInternal, err)
}

// Is reports whether err is a typed error with the given code.
func Is(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
