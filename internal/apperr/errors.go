// Package apperr defines the error kinds surfaced by the workflow services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transports can render it.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindIllegalState Kind = "illegal_state"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindCollaborator Kind = "collaborator"
	KindInternal     Kind = "internal"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrIllegalState = errors.New("illegal state")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrCollaborator = errors.New("collaborator failed")
	ErrInternal     = errors.New("internal error")
)

var sentinels = map[Kind]error{
	KindValidation:   ErrValidation,
	KindNotFound:     ErrNotFound,
	KindIllegalState: ErrIllegalState,
	KindForbidden:    ErrForbidden,
	KindUnauthorized: ErrUnauthorized,
	KindCollaborator: ErrCollaborator,
	KindInternal:     ErrInternal,
}

// Error carries which entity and operation failed and why.
type Error struct {
	Kind    Kind
	Entity  string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Entity, e.Op, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func newErr(kind Kind, entity, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Validation(entity, op, format string, args ...any) *Error {
	return newErr(KindValidation, entity, op, format, args...)
}

func NotFound(entity, op string, id int) *Error {
	return newErr(KindNotFound, entity, op, "%s %d does not exist", entity, id)
}

func IllegalState(entity, op, format string, args ...any) *Error {
	return newErr(KindIllegalState, entity, op, format, args...)
}

func Forbidden(entity, op, format string, args ...any) *Error {
	return newErr(KindForbidden, entity, op, format, args...)
}

func Unauthorized(entity, op, format string, args ...any) *Error {
	return newErr(KindUnauthorized, entity, op, format, args...)
}

// Internal wraps an unexpected failure, typically from the store.
func Internal(entity, op string, err error) *Error {
	return &Error{Kind: KindInternal, Entity: entity, Op: op, Message: "unexpected failure", Err: err}
}

// Wrap keeps an existing *Error untouched and turns anything else into an internal error.
// A bare store not-found is promoted to a not-found error for the given id.
func Wrap(entity, op string, id int, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		return NotFound(entity, op, id)
	}
	return Internal(entity, op, err)
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
