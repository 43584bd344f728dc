// Package blob stores attachment bytes under flat keys.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

const defaultContentType = "application/octet-stream"

// Store is implemented by JetStreamStore and DiskStore.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Open returns the blob and its content type. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && !strings.ContainsAny(key, `/\`)
}
