package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure surfaced to actor adapters.
type Kind string

const (
	Validation        Kind = "validation"
	NotFound          Kind = "not_found"
	InvalidState      Kind = "invalid_state"
	InvalidTransition Kind = "invalid_transition"
	Conflict          Kind = "conflict"
	PendingKOT        Kind = "pending_kot"
)

// Error is a typed business failure. Two errors match under errors.Is when
// their kinds are equal and the target carries no message of its own.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrValidation        = &Error{Kind: Validation}
	ErrNotFound          = &Error{Kind: NotFound}
	ErrInvalidState      = &Error{Kind: InvalidState}
	ErrInvalidTransition = &Error{Kind: InvalidTransition}
	ErrConflict          = &Error{Kind: Conflict}
	ErrPendingKOT        = &Error{Kind: PendingKOT}
)

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// is not a business failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status code used by the HTTP adapters.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case InvalidState, InvalidTransition, Conflict:
		return http.StatusConflict
	case PendingKOT:
		return http.StatusPreconditionRequired
	default:
		return http.StatusInternalServerError
	}
}
