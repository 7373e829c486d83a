// Package apperror defines the error kinds booking operations report to callers.
package apperror

import (
	"errors"
	"strings"
)

// Kind classifies a failure independently of any transport.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindConflict
	KindUnavailableAttendees
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailableAttendees:
		return "unavailable_attendees"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// prefix mirrors the message prefixes clients already parse.
func (k Kind) prefix() string {
	switch k {
	case KindBadRequest:
		return "Bad Request: "
	case KindNotFound:
		return "Not Found: "
	case KindConflict:
		return "Conflict: "
	case KindUnavailableAttendees:
		return "Attendee(s) Unavailable: "
	case KindUnauthorized:
		return "Unauthorized: "
	default:
		return ""
	}
}

// Error is a classified failure. Details holds one line per offending entity
// when the failure aggregates several of them.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.prefix())
	b.WriteString(e.Message)
	if e.Err != nil && e.Message == "" {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func BadRequest(msg string) *Error { return newError(KindBadRequest, msg) }

func NotFound(msg string) *Error { return newError(KindNotFound, msg) }

func Conflict(msg string) *Error { return newError(KindConflict, msg) }

func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg) }

// UnavailableAttendees builds the aggregated attendee failure. The message is
// the details joined as they are shown to users.
func UnavailableAttendees(msg string, details []string) *Error {
	e := newError(KindUnavailableAttendees, msg)
	e.Details = details
	return e
}

// Internal wraps an unclassified error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// Wrap attaches a cause to a classified error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
