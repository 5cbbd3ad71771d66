// Package apperr defines the error taxonomy for the fee engine. Every
// user-visible failure carries a stable machine-readable code plus a
// human-readable message; handlers map Status straight onto the HTTP reply.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches a cause without changing the user-visible code/message
func (e *Error) Wrap(err error) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: e.Message, Err: err}
}

// Configuration errors: missing gateway credentials, missing fee ledger.
// Not retryable; an operator has to fix setup.
func Config(code, format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation errors: rejected before any mutation, caller must correct input
func Validation(code, format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Gateway errors carry the gateway's own status for diagnosis and are never
// converted into a success
func Gateway(code, format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadGateway, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(code, format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusForbidden, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(code, format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// As unwraps err into an *Error if one is in the chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
