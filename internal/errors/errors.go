// Package errors provides the categorised error type used between the event
// repository, the access layer and the HTTP API. Every error carries a
// category, a code and a human-readable message; the category decides the
// HTTP status the API answers with.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies errors by how the caller should treat them.
type Category string

const (
	CategoryUnauthorized Category = "UNAUTHORIZED"
	CategoryForbidden    Category = "FORBIDDEN"
	CategoryNotFound     Category = "NOT_FOUND"
	CategoryUpstream     Category = "UPSTREAM"
	CategoryValidation   Category = "VALIDATION"
	CategoryInternal     Category = "INTERNAL"
)

// Error codes.
const (
	CodeNoSession     = "NO_SESSION"
	CodeNotOwner      = "NOT_OWNER"
	CodeLoginRejected = "LOGIN_REJECTED"

	CodeEventNotFound = "EVENT_NOT_FOUND"

	CodeStoreFailed   = "STORE_FAILED"
	CodeHolidayFailed = "HOLIDAY_FAILED"
	CodeLoginFailed   = "LOGIN_FAILED"

	CodeInvalidInput = "INVALID_INPUT"

	CodeUnexpected = "UNEXPECTED"
)

// CalendarError is the structured error returned across package boundaries.
type CalendarError struct {
	Category Category
	Code     string
	Message  string
	Cause    error
}

// Error returns a formatted error string.
func (e *CalendarError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *CalendarError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *CalendarError) Is(target error) bool {
	var t *CalendarError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new CalendarError.
func New(category Category, code, message string) *CalendarError {
	return &CalendarError{Category: category, Code: code, Message: message}
}

// Wrap creates a new CalendarError wrapping an existing error.
func Wrap(category Category, code, message string, cause error) *CalendarError {
	return &CalendarError{Category: category, Code: code, Message: message, Cause: cause}
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a CalendarError.
func GetCategory(err error) Category {
	var ce *CalendarError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}

// Message returns the human-readable message of a CalendarError, or the plain
// error text for any other error.
func Message(err error) string {
	var ce *CalendarError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

// HTTPStatus maps an error chain to the status code the API answers with.
func HTTPStatus(err error) int {
	switch GetCategory(err) {
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return GetCategory(err) == CategoryNotFound
}

// Convenience constructors for common errors.

func NewNotFound(message string) *CalendarError {
	return New(CategoryNotFound, CodeEventNotFound, message)
}

func NewValidation(message string) *CalendarError {
	return New(CategoryValidation, CodeInvalidInput, message)
}

func NewUnauthorized(message string) *CalendarError {
	return New(CategoryUnauthorized, CodeNoSession, message)
}

func NewForbidden(message string) *CalendarError {
	return New(CategoryForbidden, CodeNotOwner, message)
}

func NewUpstream(code, message string, cause error) *CalendarError {
	return Wrap(CategoryUpstream, code, message, cause)
}

func NewLoginRejected(message string) *CalendarError {
	return New(CategoryForbidden, CodeLoginRejected, message)
}

func NewLoginFailed(message string, cause error) *CalendarError {
	return Wrap(CategoryUnauthorized, CodeLoginFailed, message, cause)
}

// NewUnexpected marks an error that carries no category of its own.
func NewUnexpected(cause error) *CalendarError {
	return Wrap(CategoryInternal, CodeUnexpected, "unexpected error", cause)
}
