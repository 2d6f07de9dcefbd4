// Package apierror carries HTTP status and a stable code with an error.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidRequest  Code = "INVALID_REQUEST"  // 400
	CodeNotFound        Code = "NOT_FOUND"        // 404
	CodeTooLarge        Code = "TOO_LARGE"        // 413
	CodeUnsupportedType Code = "UNSUPPORTED_TYPE" // 415
	CodeUpstream        Code = "UPSTREAM_ERROR"   // 502
	CodeUnavailable     Code = "UNAVAILABLE"      // 503
	CodeInternal        Code = "INTERNAL"         // 500
)

// Error is an error with an HTTP status.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidRequest creates a 400 error.
func InvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Status: http.StatusBadRequest, Message: msg}
}

// NotFound creates a 404 error for a missing resource.
func NotFound(what, id string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf("%s not found: %s", what, id)}
}

// TooLarge creates a 413 error.
func TooLarge(msg string) *Error {
	return &Error{Code: CodeTooLarge, Status: http.StatusRequestEntityTooLarge, Message: msg}
}

// UnsupportedType creates a 415 error.
func UnsupportedType(msg string) *Error {
	return &Error{Code: CodeUnsupportedType, Status: http.StatusUnsupportedMediaType, Message: msg}
}

// Upstream creates a 502 error for a failed call to the model. msg is
// shown to the user; err is kept for logs.
func Upstream(msg string, err error) *Error {
	return &Error{Code: CodeUpstream, Status: http.StatusBadGateway, Message: msg, Err: err}
}

// Unavailable creates a 503 error.
func Unavailable(msg string) *Error {
	return &Error{Code: CodeUnavailable, Status: http.StatusServiceUnavailable, Message: msg}
}

// Internal creates a 500 error.
func Internal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As returns err as an *Error, treating anything else as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

type body struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Write sends err as {"error": {"code", "message"}} with its status.
func Write(w http.ResponseWriter, err error) {
	e := As(err)
	var b body
	b.Error.Code = e.Code
	b.Error.Message = e.Message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(b)
}
