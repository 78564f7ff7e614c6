// Package apperrors defines the error kinds surfaced at the HTTP boundary.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the response it maps to.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidID
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidID:
		return "invalid_id"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error carries a kind, a message safe to show to clients and an optional cause.
type Error struct {
	Kind    Kind
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

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func InvalidID(message string) *Error {
	return &Error{Kind: KindInvalidID, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Wrap attaches a cause to a kind. The cause is for logs only.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// PublicMessage returns the message a client may see for err.
func PublicMessage(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// HTTPStatus maps a kind to its response status. Missing resources answer
// 400 like every other client-side failure; only auth failures get 401.
func HTTPStatus(kind Kind) int {
	if kind == KindUnauthorized {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}
