package storage

import (
	"context"
	"io"
)

// BlobStore persists finished recordings and returns a URL the browser can
// play back from. The name is the caller-chosen object name (id plus
// extension); each backend decides where that lands and what the URL looks
// like.
type BlobStore interface {
	Save(ctx context.Context, name, contentType string, size int64, r io.Reader) (string, error)
}
