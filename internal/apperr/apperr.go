// Package apperr defines the error kinds the service layer surfaces to its
// callers. Handlers inspect the kind to pick an HTTP status; nothing in this
// package knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnknown is any error that carries no kind (treated as internal).
	KindUnknown Kind = iota
	// KindValidation: malformed or out-of-range field (negative debt,
	// bad email, self-referencing supplier).
	KindValidation
	// KindNotFound: a referenced id does not resolve to an existing record.
	KindNotFound
	// KindCycle: the proposed supplier assignment would make a node its own
	// ancestor.
	KindCycle
	// KindConflict: concurrent cascade conflict or corrupt hierarchy detected
	// at traversal time; safe for the caller to retry.
	KindConflict
	// KindUnauthorized: the caller is not an authenticated active employee.
	KindUnauthorized
)

// Error couples a Kind with a human-readable message and an optional cause.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Cycle(format string, args ...interface{}) *Error {
	return newf(KindCycle, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newf(KindUnauthorized, format, args...)
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf extracts the kind from err, unwrapping as needed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}
