// Package apperr defines the error taxonomy shared by the workflow services.
// Handlers map these onto transport codes; services return them directly.
package apperr

import (
	"errors"
	"fmt"
)

// Category sentinels. Match with errors.Is.
var (
	// ErrValidation marks malformed or rejected input. No side effects occurred.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks a role or ownership mismatch.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an illegal state transition or duplicate unique key.
	ErrConflict = errors.New("conflict")
	// ErrExpiredToken marks a credential past its expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrRevokedToken marks a structurally valid credential whose backing
	// session record no longer exists.
	ErrRevokedToken = errors.New("token revoked")
	// ErrInvalidInviteKind marks a single-purpose token presented for the
	// wrong purpose.
	ErrInvalidInviteKind = errors.New("invalid invite kind")
)

// Error pairs a category sentinel with a caller-facing message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap returns the category sentinel so errors.Is(err, apperr.ErrConflict) works.
func (e *Error) Unwrap() error { return e.kind }

// Validationf returns a ErrValidation-category error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Unauthorizedf returns a ErrUnauthorized-category error with a formatted message.
func Unauthorizedf(format string, args ...any) error {
	return &Error{kind: ErrUnauthorized, msg: fmt.Sprintf(format, args...)}
}

// NotFoundf returns a ErrNotFound-category error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Conflictf returns a ErrConflict-category error with a formatted message.
func Conflictf(format string, args ...any) error {
	return &Error{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}
