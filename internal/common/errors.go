package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrConflict           = errors.New("resource conflict") // e.g., username already exists
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// AppError carries a client-facing message for one of the sentinel kinds above.
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Kind }

func NewError(kind error, message string) error {
	return &AppError{Kind: kind, Message: message}
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		// Duplicate usernames surface as a plain bad request on this API.
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// ClientMessage returns the text that may be shown to the caller for err.
func ClientMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	for _, kind := range []error{ErrNotFound, ErrUnauthorized, ErrForbidden, ErrConflict, ErrValidation, ErrInvalidCredentials, ErrInvalidTransition} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "Internal server error"
}

// Errorf formats like fmt.Errorf. The %w cause keeps its stack for %+v; a
// cause without one gets the caller's stack attached.
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	cause := errors.Unwrap(err)
	if cause == nil {
		return pkgerrors.WithStack(err)
	}
	if !hasStack(cause) {
		cause = pkgerrors.WithStack(cause)
	}
	return &wrappedError{msg: err.Error(), cause: cause}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func hasStack(err error) bool {
	var st stackTracer
	return errors.As(err, &st)
}

type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string { return e.msg }

func (e *wrappedError) Unwrap() error { return e.cause }

func (e *wrappedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s\n%+v", e.msg, e.cause)
			return
		}
		io.WriteString(s, e.msg)
	case 's':
		io.WriteString(s, e.msg)
	case 'q':
		fmt.Fprintf(s, "%q", e.msg)
	}
}
