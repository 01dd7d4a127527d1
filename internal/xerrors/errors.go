package xerrors

import (
	"errors"
	"net/http"
	"strings"
)

// Error is an error that knows which HTTP status it should be reported with.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func Unauthorized(opts ...Option) *Error { return newErr(http.StatusUnauthorized, opts) }
func BadRequest(opts ...Option) *Error   { return newErr(http.StatusBadRequest, opts) }
func Internal(opts ...Option) *Error     { return newErr(http.StatusInternalServerError, opts) }

func newErr(status int, opts []Option) *Error {
	text := strings.ToLower(http.StatusText(status))
	e := &Error{
		StatusCode: status,
		Code:       strings.ReplaceAll(text, " ", "_"),
		Message:    text,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type Option func(*Error)

func WithMessage(msg string) Option { return func(e *Error) { e.Message = msg } }
func WithCode(code string) Option   { return func(e *Error) { e.Code = code } }
func WithCause(err error) Option    { return func(e *Error) { e.Cause = err } }

func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
