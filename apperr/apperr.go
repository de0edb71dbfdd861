// Package apperr defines the closed set of error kinds surfaced to API
// clients and the single mapping from kind to HTTP status.
package apperr

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Kind is the machine-readable tag carried by every error response.
type Kind string

const (
	KindNotFound      Kind = "NOT_FOUND"
	KindBadRequest    Kind = "BAD_REQUEST"
	KindValidation    Kind = "VALIDATION_ERROR"
	KindAuthorization Kind = "AUTHORIZATION_ERROR"
	KindInternal      Kind = "INTERNAL_ERROR"
)

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest, KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is an API-facing error. Reason is shown to the client; Err is the
// underlying cause and is only ever logged.
type Error struct {
	Kind   Kind
	Reason string
	Fields []FieldError
	Err    error
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int { return e.Kind.Status() }

// MarshalJSON renders the error as {"type": KIND, "value": detail}. Internal
// errors carry no detail.
func (e *Error) MarshalJSON() ([]byte, error) {
	body := struct {
		Type  Kind `json:"type"`
		Value any  `json:"value,omitempty"`
	}{Type: e.Kind}
	switch e.Kind {
	case KindInternal:
	case KindValidation:
		body.Value = e.Fields
	default:
		if e.Reason != "" {
			body.Value = e.Reason
		}
	}
	return json.Marshal(body)
}

func NotFound(reason string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func BadRequest(reason string) *Error {
	return &Error{Kind: KindBadRequest, Reason: reason}
}

// Unauthorized builds an authorization error with a client-visible reason.
func Unauthorized(reason string) *Error {
	return &Error{Kind: KindAuthorization, Reason: reason}
}

// UnauthorizedCause is Unauthorized with a cause kept for logging.
func UnauthorizedCause(reason string, cause error) *Error {
	return &Error{Kind: KindAuthorization, Reason: reason, Err: cause}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Err: cause}
}

// Validation converts validator output into a validation error.
func Validation(err error) *Error {
	out := &Error{Kind: KindValidation, Err: err}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out.Fields = make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{Field: fe.Namespace(), Tag: fe.Tag(), Param: fe.Param()})
		}
	}
	return out
}

// From classifies err. Errors that are already *Error pass through.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: KindNotFound, Reason: "Resource not found", Err: err}
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return Validation(err)
	}
	return Internal(err)
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == k
}
