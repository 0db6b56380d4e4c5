package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage is the blob backend. Keys are opaque; callers never derive paths
// from user input.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a fresh opaque key, sharded by its first two hex
// characters to keep directories small.
func NewStorageKey() string {
	id := uuid.NewString()
	return filepath.Join(id[:2], id)
}

// DiskStorage stores blobs under a root directory.
type DiskStorage struct {
	Root string
}

func (s *DiskStorage) path(key string) string {
	return filepath.Join(s.Root, filepath.Clean(key))
}

func (s *DiskStorage) Save(_ context.Context, key string, r io.Reader) (int64, error) {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, fmt.Errorf("create storage dir: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(p)
		return 0, fmt.Errorf("write blob: %w", err)
	}
	return n, nil
}

func (s *DiskStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *DiskStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
