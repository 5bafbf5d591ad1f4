package store

import (
	"errors"
	"fmt"

	"github.com/roach88/tristore/internal/triple"
)

var (
	// ErrDuplicate matches a DuplicateError.
	ErrDuplicate = errors.New("duplicate triple")

	// ErrIndexPoisoned is returned by every call after a writer panicked
	// while holding the index lock. It is not retryable.
	ErrIndexPoisoned = errors.New("index: lock poisoned")

	// ErrStorage matches a StorageError.
	ErrStorage = errors.New("storage error")

	// ErrInvalidTriple rejects triples that cannot be encoded.
	ErrInvalidTriple = errors.New("invalid triple")
)

// DuplicateError reports a strict Insert of content already stored.
type DuplicateError struct {
	ID triple.ID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate triple %s", e.ID.Hex())
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// StorageError wraps a failure returned by the backend.
type StorageError struct {
	Op      string
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s on %s: %v", e.Op, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
