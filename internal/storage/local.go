package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes recordings to a directory on disk. It is the default
// backend when no S3 credentials are configured; the server exposes the
// directory under /uploads.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory recordings are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, name, contentType string, size int64, r io.Reader) (string, error) {
	// Base strips any path components a hostile name might carry.
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("storage: writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: closing %s: %w", path, err)
	}

	return "/uploads/" + name, nil
}
