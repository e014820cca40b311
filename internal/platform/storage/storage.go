package storage

import (
	"context"
	"io"
)

// ObjectStorage stores uploaded files under string keys. Implementations
// return once the object is durably written; the key doubles as the
// public path suffix served to clients.
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}
