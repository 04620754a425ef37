package storage

import (
	"context"
	"io"
)

// BlobStore persists opaque binary objects. Put returns the reference string
// callers store in place of the object itself.
type BlobStore interface {
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
