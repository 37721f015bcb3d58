// Package apperr defines the error kinds shared across services and handlers.
// Services wrap these sentinels with context; handlers map them to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth indicates a missing, invalid, or expired session.
	ErrAuth = errors.New("authentication required")
	// ErrPermission indicates the caller's role does not allow the action.
	// A client-side role check passing does not rule this out; the store is the final authority.
	ErrPermission = errors.New("permission denied")
	// ErrNotFound indicates the referenced pod, note, user, or membership no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation, e.g. inviting an existing member.
	ErrDuplicate = errors.New("already exists")
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("invalid input")
	// ErrRemote indicates a generic backend or network failure, including timeouts.
	ErrRemote = errors.New("remote operation failed")
)

// Wrap returns an error that matches kind under errors.Is and carries msg.
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// Wrapf is Wrap with formatting.
func Wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
