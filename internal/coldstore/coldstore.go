// Package coldstore moves archived fact rows out of the warm database and
// into object storage. The production driver targets S3 (or an
// S3-compatible endpoint such as MinIO); the in-memory driver backs tests.
package coldstore

import (
	"context"
	"io"
	"time"
)

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is a minimal write-mostly blob store. Archival only ever appends
// new objects; nothing in the pipeline mutates or deletes what has been
// offloaded.
type Store interface {
	// Put uploads the object under key, overwriting any previous object
	// with the same key.
	Put(ctx context.Context, key, contentType string, r io.Reader) error

	// List returns the objects whose keys start with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)

	// Get retrieves an object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
