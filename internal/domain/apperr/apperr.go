// Package apperr defines the error classes services wrap their failures in so
// transports can map them without knowing every sentinel.
package apperr

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/alquemist/internal/repository"
)

var (
	// ErrInvalid marks malformed or incomplete input.
	ErrInvalid = errors.New("invalid input")
	// ErrConflict marks uniqueness violations.
	ErrConflict = errors.New("conflict")
	// ErrRejected marks well-formed requests that business rules refuse.
	ErrRejected = errors.New("rejected")
	// ErrNotFound is the repository not-found error.
	ErrNotFound = repository.ErrNotFound
)

// Invalid wraps ErrInvalid with a formatted message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound naming the missing entity.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// Lookup converts a repository not-found into a NotFound naming the entity and
// passes other errors through.
func Lookup(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound(entity, id)
	}
	return err
}
