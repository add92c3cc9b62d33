// Package errs provides the domain error taxonomy shared by every booksly
// component: validation failures, missing entities, uniqueness conflicts,
// ownership violations, bad credentials, and store unavailability.
//
// Components declare specific sentinels, e.g.
//
//	var ErrSelfFollow = errs.Conflict("you can't follow yourself")
//
// and return them directly. Callers can match the exact condition with
// errors.Is(err, users.ErrSelfFollow), or the whole class with
// errors.Is(err, errs.ErrConflict).
package errs

import (
	"errors"
	"fmt"
)

// Re-export the standard helpers so callers don't need two imports.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Code classifies an error for callers that dispatch on outcome class.
type Code string

const (
	CodeValidation         Code = "VALIDATION"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodePermission         Code = "PERMISSION"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnavailable        Code = "UNAVAILABLE"
)

// Generic sentinels, one per code. errors.Is against these matches any error
// of the class.
var (
	ErrValidation         = &Error{Code: CodeValidation}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrConflict           = &Error{Code: CodeConflict}
	ErrPermission         = &Error{Code: CodePermission}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials}
	ErrUnavailable        = &Error{Code: CodeUnavailable}
)

// Error is a domain error with a code, a caller-facing message, and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		if e.Message == "" {
			return e.cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Is matches a class sentinel (an *Error with the same code and no message of
// its own) or a specific sentinel with the same code and message.
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	t, ok := target.(*Error)
	if !ok || t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// WithCause returns a copy of e carrying cause. The copy still matches e
// under errors.Is.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: cause}
}

func Validation(msg string) *Error { return &Error{Code: CodeValidation, Message: msg} }
func NotFound(msg string) *Error   { return &Error{Code: CodeNotFound, Message: msg} }
func Conflict(msg string) *Error   { return &Error{Code: CodeConflict, Message: msg} }
func Permission(msg string) *Error { return &Error{Code: CodePermission, Message: msg} }

// InvalidCredentials reports a failed password check.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// Unavailable wraps a transport/connectivity failure from the backing store.
func Unavailable(msg string, cause error) *Error {
	return &Error{Code: CodeUnavailable, Message: msg, cause: cause}
}
