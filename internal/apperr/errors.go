// Package apperr defines the error kinds surfaced at the request boundary.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindUnauthorized
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error carries a user-visible Detail and, for internal failures, the
// underlying cause which is never shown to the client.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Detail: resource + " not found"}
}

func BadRequest(detail string) error {
	return &Error{Kind: KindBadRequest, Detail: detail}
}

func Unauthorized(detail string) error {
	return &Error{Kind: KindUnauthorized, Detail: detail}
}

func Internal(detail string, err error) error {
	return &Error{Kind: KindInternal, Detail: detail, Err: err}
}

// KindOf classifies err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Detail returns the client-safe message for err.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return "Internal server error"
}
