// Package domainerrors defines the coded error type shared by services,
// stores and transports. Services return these (or typed errors exposing
// ErrorCode) so that transports can map failures without string matching.
package domainerrors

import (
	"errors"
)

// Code is a stable, machine-readable error classification.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeComplianceRejected Code = "compliance_rejected"
)

// Error is a coded domain error. Message is safe to show to callers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode implements Coder.
func (e *Error) ErrorCode() Code { return e.Code }

// Coder is implemented by typed errors that carry their own classification.
type Coder interface {
	ErrorCode() Code
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the first code found in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Reasoner is implemented by errors that carry a revert name such as
// "ModuleAlreadyAdded". Transports surface it alongside the code.
type Reasoner interface {
	Reason() string
}

// ReasonOf returns the revert name carried by err, if any.
func ReasonOf(err error) string {
	var r Reasoner
	if errors.As(err, &r) {
		return r.Reason()
	}
	return ""
}
