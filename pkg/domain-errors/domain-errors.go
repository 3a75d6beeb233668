package domainerrors

import (
	"errors"

	"github.com/google/uuid"
)

// Code represents a domain error category independent of transport layer.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// CodeExternalService marks Scorer, RPC and signing failures. The caller only
	// ever sees the incident id; the cause stays in the server log.
	CodeExternalService Code = "external_service_error"
)

// Error wraps domain or infrastructure failures with a stable code.
type Error struct {
	Code       Code
	Message    string
	Err        error
	IncidentID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err, IncidentID: existing.IncidentID}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// External wraps an infrastructure failure and assigns it a fresh incident id.
// Domain errors that already carry a non-external code pass through unchanged.
func External(err error, msg string) error {
	var existing *Error
	if errors.As(err, &existing) && existing.Code != CodeExternalService && existing.Code != CodeInternal {
		return err
	}
	if existing != nil && existing.IncidentID != "" {
		return &Error{Code: CodeExternalService, Message: msg, Err: err, IncidentID: existing.IncidentID}
	}
	return &Error{Code: CodeExternalService, Message: msg, Err: err, IncidentID: uuid.NewString()}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IncidentID returns the incident id attached to err, if any.
func IncidentID(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.IncidentID
	}
	return ""
}
