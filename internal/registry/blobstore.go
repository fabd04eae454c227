// Package registry is an external storage-manager collaborator: it
// persists and retrieves the opaque byte images the Codec produces,
// and indexes them by schema name. It never reaches into a Schema's
// internals — the core package (pkg/arrayschema) never touches disk
// itself (spec Non-goal: no disk I/O in the core).
package registry

import (
	"context"
	"errors"
)

// Common errors returned by every BlobStore implementation.
var (
	ErrObjectNotFound     = errors.New("registry: object not found")
	ErrPreconditionFailed = errors.New("registry: precondition failed")
	ErrUploadFailed       = errors.New("registry: upload failed")
	ErrDownloadFailed     = errors.New("registry: download failed")
	ErrDeleteFailed       = errors.New("registry: delete failed")
)

// BlobStore abstracts byte-oriented object storage for schema images.
// Implementations include S3 and the local filesystem (for testing).
type BlobStore interface {
	// Put writes data under key, returning its ETag.
	Put(ctx context.Context, key string, data []byte) (etag string, err error)

	// Get reads the object stored under key. Returns ErrObjectNotFound
	// if no such object exists.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object under key. Idempotent: deleting an
	// already-absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object exists under key.
	Exists(ctx context.Context, key string) (bool, error)

	// ConditionalPut writes data under key only if the object's current
	// ETag matches etag (empty etag means "key must not yet exist").
	// Returns ErrPreconditionFailed on mismatch.
	ConditionalPut(ctx context.Context, key string, data []byte, etag string) (string, error)

	// List returns every key under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
