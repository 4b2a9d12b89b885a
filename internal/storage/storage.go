// Package storage archives raw uploads in object storage. Implementations
// cover the local filesystem and S3-compatible services.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrPutFailed      = errors.New("put failed")
	ErrGetFailed      = errors.New("get failed")
)

// ObjectStorage abstracts the archival backend for raw uploads.
type ObjectStorage interface {
	// Put stores data under objectPath, overwriting any existing object.
	Put(ctx context.Context, objectPath string, data []byte) error

	// Get retrieves the object at objectPath.
	Get(ctx context.Context, objectPath string) ([]byte, error)

	// Exists reports whether an object is stored at objectPath.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// List returns all object paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at objectPath. Deleting a missing object
	// is not an error.
	Delete(ctx context.Context, objectPath string) error
}
