package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps blobs as files in one directory. The content type lives in
// a sidecar file next to each blob.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

const typeSuffix = ".content-type"

func (s *DiskStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if !validKey(key) || strings.HasSuffix(key, typeSuffix) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := os.WriteFile(path+typeSuffix, []byte(contentType), 0o644); err != nil {
		return fmt.Errorf("writing blob type: %w", err)
	}
	return nil
}

func (s *DiskStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	if !validKey(key) || strings.HasSuffix(key, typeSuffix) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := filepath.Join(s.dir, key)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("opening blob: %w", err)
	}

	ct := defaultContentType
	if raw, err := os.ReadFile(path + typeSuffix); err == nil && len(raw) > 0 {
		ct = string(raw)
	}
	return f, ct, nil
}
