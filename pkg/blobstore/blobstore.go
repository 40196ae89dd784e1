// Package blobstore defines the key-value object store contract used for
// dataset persistence. Keys are opaque slash-separated paths; the store
// itself knows nothing about ownership or dataset semantics.
package blobstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object as reported by List.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is the minimal object-store interface required by the dataset
// pipeline. Implementations must return ErrNotFound (possibly wrapped)
// from Get and Delete when the key is absent.
type Store interface {
	// Put writes data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the full contents of the object at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all objects whose keys begin with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// Presign returns a URL granting read access to key for the given
	// duration.
	Presign(ctx context.Context, key string, expires time.Duration) (string, error)
}
