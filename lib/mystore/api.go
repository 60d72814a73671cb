package mystore

import (
	"context"
	"errors"
	"os"
)

var (
	// ErrAlreadyExists is returned by Insert when an entity with the
	// same uid is already present.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrConflict is returned by Update when the stored version no
	// longer matches the version the caller read. The caller lost the
	// race and must re-read before writing again.
	ErrConflict = errors.New("optimistic concurrency conflict")
)

// Store is a keyed container of versioned entities. Every read hands
// out a private copy together with the version it was read at; every
// write is a compare-and-swap against that version. Contention is
// per-key: writers for different uids never conflict.
type Store[T any] interface {
	// Get returns a copy of the entity and the version it was read at.
	Get(c context.Context, uid string) (T, int64, bool, error)

	// Insert stores a new entity at version 1.
	// Fails with ErrAlreadyExists when the uid is taken.
	Insert(c context.Context, uid string, value T) error

	// Update atomically replaces the entity, but only if its stored
	// version still equals expectedVersion. On success the new version
	// is returned; on a lost race the error wraps ErrConflict and the
	// stored entity is left untouched.
	Update(c context.Context, uid string, value T, expectedVersion int64) (int64, error)
}

func New[T any](c context.Context) (Store[T], func(), error) {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return newGcloudStore[T](c)
	}

	return NewInMemoryStore[T](c)
}
