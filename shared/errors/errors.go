package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the HTTP layer. Match them with Is.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("token is invalid")
	ErrExpiredToken       = errors.New("token has expired")

	// Resource errors
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")

	// Server errors
	ErrConfiguration = errors.New("configuration error")
	ErrSigning       = errors.New("token signing failed")
)

// Error carries a client-facing message for one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New builds an error of the given kind with a formatted message
func New(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound is shorthand for a resource that is missing or outside the caller's organization
func NotFound(resource string) error {
	return New(ErrNotFound, "%s not found", resource)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Message returns the client-facing message of err, or fallback when err
// carries none of the known kinds.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	for _, kind := range []error{
		ErrInvalidCredentials, ErrInvalidToken, ErrExpiredToken,
		ErrNotFound, ErrConflict, ErrForbidden, ErrValidation,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return fallback
}
