package model

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes gridstore errors.
type ErrorCode string

const (
	// ErrCodeInitializationFailed indicates authentication or header sync
	// failed at startup. The store stays failed for its lifetime.
	ErrCodeInitializationFailed ErrorCode = "INITIALIZATION_FAILED"

	// ErrCodeMissingRequiredField indicates a create omitted a required field.
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"

	// ErrCodeTypeMismatch indicates a written value disagrees with the declared type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnknownField indicates a query or patch names an undeclared field.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeInvalidSchema indicates the declared schema itself is unusable.
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"

	// ErrCodeNotFound indicates no live row satisfies the query.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeTransport indicates a remote call failed.
	ErrCodeTransport ErrorCode = "TRANSPORT"
)

// Error is the single error type returned by gridstore operations.
// Use the Is* helpers rather than comparing codes directly.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation that failed (create, find, update, ...).
	Op string

	// Field names the offending field, when there is one.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithOp returns a copy of e tagged with op. An existing op is kept.
func (e *Error) WithOp(op string) *Error {
	if e.Op != "" {
		return e
	}
	c := *e
	c.Op = op
	return &c
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsValidation reports whether err rejected caller input before any write.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case ErrCodeMissingRequiredField, ErrCodeTypeMismatch, ErrCodeUnknownField, ErrCodeInvalidSchema:
		return true
	}
	return false
}

// IsInitialization reports whether err comes from a failed startup.
func IsInitialization(err error) bool {
	return CodeOf(err) == ErrCodeInitializationFailed
}

// IsTransport reports whether err is a remote call failure.
func IsTransport(err error) bool {
	return CodeOf(err) == ErrCodeTransport
}

// NewMissingFieldError creates an error for an absent required field.
func NewMissingFieldError(field string) *Error {
	return &Error{
		Code:    ErrCodeMissingRequiredField,
		Field:   field,
		Message: "required field is absent",
	}
}

// NewEmptyRecordError creates an error for a row that would carry no
// declared value. Such a row reads as a tombstone.
func NewEmptyRecordError() *Error {
	return &Error{
		Code:    ErrCodeMissingRequiredField,
		Message: "record sets no declared field; the row would read as deleted",
	}
}

// NewTypeMismatchError creates an error for a value of the wrong kind.
func NewTypeMismatchError(field string, want, got Kind) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Field:   field,
		Message: fmt.Sprintf("declared %s, got %s", want, got),
	}
}

// NewUnknownFieldError creates an error for an undeclared field name.
func NewUnknownFieldError(field string) *Error {
	return &Error{
		Code:    ErrCodeUnknownField,
		Field:   field,
		Message: "field is not declared in the schema",
	}
}

// NewSchemaError creates an error for an unusable schema.
func NewSchemaError(message string) *Error {
	return &Error{Code: ErrCodeInvalidSchema, Message: message}
}

// NewNotFoundError creates an error for a query with no live match.
func NewNotFoundError(op string) *Error {
	return &Error{Code: ErrCodeNotFound, Op: op, Message: "no record matches query"}
}

// NewTransportError wraps a remote call failure.
func NewTransportError(op string, err error) *Error {
	return &Error{Code: ErrCodeTransport, Op: op, Err: err}
}

// NewInitializationError wraps a startup failure.
func NewInitializationError(message string, err error) *Error {
	return &Error{Code: ErrCodeInitializationFailed, Message: message, Err: err}
}
