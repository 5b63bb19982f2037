// Package errors provides coded domain errors for the BookWise engine and API.
//
// Usage:
//
//	// In the engine - return typed errors
//	if !found {
//	    return nil, errors.TitleNotFoundf("no book titled %q", title)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrTitleNotFound) {
//	    // surface "no such title"
//	}
//
//	// Or switch on the Code directly
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeInvalidK:
//	    case errors.CodeDegenerateCorpus:
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeTitleNotFound    Code = "TITLE_NOT_FOUND"
	CodeInvalidK         Code = "INVALID_K"
	CodeValidation       Code = "VALIDATION"
	CodeDegenerateCorpus Code = "DEGENERATE_CORPUS"
	CodeNotReady         Code = "NOT_READY"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeInternal         Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeTitleNotFound:
		return http.StatusNotFound
	case CodeInvalidK, CodeValidation:
		return http.StatusBadRequest
	case CodeDegenerateCorpus, CodeNotReady:
		return http.StatusServiceUnavailable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrTitleNotFound    = &Error{Code: CodeTitleNotFound, Message: "title not found"}
	ErrInvalidK         = &Error{Code: CodeInvalidK, Message: "k must be a positive integer"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation error"}
	ErrDegenerateCorpus = &Error{Code: CodeDegenerateCorpus, Message: "degenerate corpus"}
	ErrNotReady         = &Error{Code: CodeNotReady, Message: "catalog not ready"}
	ErrRateLimited      = &Error{Code: CodeRateLimited, Message: "rate limit exceeded"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// TitleNotFoundf creates a title-not-found error with formatted message.
func TitleNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeTitleNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidKf creates an invalid-k error with formatted message.
func InvalidKf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidK, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// DegenerateCorpus creates a degenerate corpus error.
func DegenerateCorpus(msg string) *Error {
	return &Error{Code: CodeDegenerateCorpus, Message: msg}
}

// NotReady creates a not-ready error.
func NotReady(msg string) *Error {
	return &Error{Code: CodeNotReady, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
