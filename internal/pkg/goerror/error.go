// Package goerror carries the client-facing side of an error: the message the
// API may show, a Code that fixes the HTTP status, and per-field validation
// details. The wrapped cause stays available to logs through Unwrap.
package goerror

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

// Sentinels returned by repositories.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Code selects the HTTP status of an Error. The zero value is CodeInternal.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeBadRequest
	CodeUnauthorized
	CodeNotFound
	CodeConflict
	CodeUnavailable
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:      {"INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"INVALID_INPUT", http.StatusBadRequest},
	CodeBadRequest:    {"BAD_REQUEST", http.StatusBadRequest},
	CodeUnauthorized:  {"UNAUTHORIZED", http.StatusUnauthorized},
	CodeNotFound:      {"NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"CONFLICT", http.StatusConflict},
	CodeUnavailable:   {"UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// Status returns the HTTP status for c; unknown codes map to 500.
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Error is an error with a client-safe message.
type Error struct {
	cause  error
	msg    string
	code   Code
	fields map[string]string
}

// Error prefers the cause so logs show what actually failed; Msg is what the
// client sees.
func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return e.cause.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.code.String()
	}
}

// Msg returns the client-facing message.
func (e *Error) Msg() string { return e.msg }

// Code returns the classification.
func (e *Error) Code() Code { return e.code }

// StatusCode returns the HTTP status for the error's code.
func (e *Error) StatusCode() int { return e.code.Status() }

// Fields returns per-field validation messages keyed by JSON field name.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.cause }

// NewServer hides cause behind a generic 500 message. msg, when non-empty,
// replaces that message.
func NewServer(cause error, msg ...string) error {
	e := &Error{cause: cause, msg: "Internal server error", code: CodeInternal}
	if len(msg) > 0 && msg[0] != "" {
		e.msg = msg[0]
	}
	return e
}

// NewBusiness reports a rule the request broke, e.g. an expired OTP.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, code: code}
}

// NewUnauthorized reports a missing or dead session.
func NewUnauthorized(msg string) error {
	return &Error{msg: msg, code: CodeUnauthorized}
}

// NewInvalidFormat reports a body that could not be decoded at all.
func NewInvalidFormat(msg ...string) error {
	e := &Error{msg: "Invalid request body", code: CodeInvalidFormat}
	if len(msg) > 0 && msg[0] != "" {
		e.msg = msg[0]
	}
	return e
}

// NewInvalidInput reports field validation failures. Fields come from cause
// when it exposes Values() (the validator's error), otherwise from kv pairs
// of field name and message. An odd kv list is a caller bug and degrades to
// an invalid-format error.
func NewInvalidInput(cause error, kv ...string) error {
	e := &Error{cause: cause, msg: "Validation error", code: CodeInvalidInput}

	var fv interface{ Values() map[string]string }
	if cause != nil && errors.As(cause, &fv) {
		e.fields = maps.Clone(fv.Values())
		return e
	}
	if cause != nil {
		return e
	}

	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}
	return e
}
