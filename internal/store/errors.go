package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrDraftNotFound indicates that the requested draft row does not exist.
	ErrDraftNotFound = fmt.Errorf("%w: draft", ErrNotFound)

	// ErrCandidateNotFound indicates that the requested candidate row does not exist.
	ErrCandidateNotFound = fmt.Errorf("%w: candidate", ErrNotFound)

	// ErrValidatedNotFound indicates that the requested validated row does not exist.
	ErrValidatedNotFound = fmt.Errorf("%w: validated item", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
