// Package apperr defines the error kinds the API recovers from at the endpoint
// boundary and renders as JSON.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPermissionDenied
	KindUnauthenticated
	KindConflict
)

// NonFieldErrors is the key used for validation messages not tied to one field.
const NonFieldErrors = "non_field_errors"

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the kind to its HTTP status. Conflicts surface as 400.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Body returns the JSON payload for the error.
func (e *Error) Body() map[string]interface{} {
	switch e.Kind {
	case KindValidation, KindConflict:
		body := make(map[string]interface{}, len(e.Fields))
		for field, msgs := range e.Fields {
			body[field] = msgs
		}
		if len(body) == 0 {
			body[NonFieldErrors] = []string{e.Error()}
		}
		return body
	case KindInternal:
		return map[string]interface{}{"detail": "internal server error"}
	default:
		return map[string]interface{}{"detail": e.Error()}
	}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Field builds a validation error for a single field.
func Field(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: map[string][]string{field: {msg}}}
}

func FieldErrors(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func PermissionDenied(msg string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Fields: map[string][]string{NonFieldErrors: {msg}}}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// As extracts an *Error from err, wrapping unknown errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
