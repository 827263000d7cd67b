// Package apperr defines the categorized errors shared by the service layers
// and mapped to HTTP responses at the edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	CodeValidation   Code = "validation_error"
	CodeConflict     Code = "conflict"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeRateLimited  Code = "rate_limited"
	CodeUpstream     Code = "upstream_error"
	CodeInternal     Code = "internal_error"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a categorized application error.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code.
func New(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Validation creates a validation error carrying per-field details.
func Validation(fields []FieldError) *Error {
	return &Error{Code: CodeValidation, Message: "Validation failed", Fields: fields}
}

// Invalid creates a validation error for a single field.
func Invalid(field, msg string) *Error {
	return Validation([]FieldError{{Field: field, Message: msg}})
}

func NotFound(msg string) *Error {
	return New(CodeNotFound, msg, nil)
}

func Conflict(msg string) *Error {
	return New(CodeConflict, msg, nil)
}

func Unauthorized(msg string) *Error {
	return New(CodeUnauthorized, msg, nil)
}

func RateLimited(msg string) *Error {
	return New(CodeRateLimited, msg, nil)
}

func Upstream(msg string, err error) *Error {
	return New(CodeUpstream, msg, err)
}

func Internal(msg string, err error) *Error {
	return New(CodeInternal, msg, err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the category of err, or CodeInternal for uncategorized errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
