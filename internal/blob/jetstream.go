package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamStore keeps blobs in a NATS JetStream object store bucket.
type JetStreamStore struct {
	store jetstream.ObjectStore
}

// NewJetStreamStore binds to bucket, creating it on first use.
func NewJetStreamStore(ctx context.Context, js jetstream.JetStream, bucket string) (*JetStreamStore, error) {
	store, err := js.ObjectStore(ctx, bucket)
	if err == nil {
		return &JetStreamStore{store: store}, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("opening object store %s: %w", bucket, err)
	}

	store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "Chat attachments",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store bucket: %w", err)
	}
	return &JetStreamStore{store: store}, nil
}

func (s *JetStreamStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	meta := jetstream.ObjectMeta{
		Name: key,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}
	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

func (s *JetStreamStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !validKey(key) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	result, err := s.store.Get(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object: %w", err)
	}

	info, err := result.Info()
	if err != nil {
		result.Close()
		return nil, "", fmt.Errorf("failed to get object info: %w", err)
	}
	return result, contentType(info.Headers), nil
}

func contentType(headers nats.Header) string {
	if headers != nil {
		if ct := headers.Get("Content-Type"); ct != "" {
			return ct
		}
	}
	return defaultContentType
}
