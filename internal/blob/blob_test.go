package blob

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "123-file.png", []byte("png bytes"), "image/png"))

	rc, ct, err := s.Open(ctx, "123-file.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
	assert.Equal(t, "image/png", ct)

	_, _, err = s.Open(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, s.Put(ctx, key, []byte("x"), "text/plain"), ErrInvalidKey, key)
		_, _, err := s.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestDiskStore(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	exerciseStore(t, s)
}

func TestDiskStore_DefaultContentType(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dir+"/raw.bin", []byte{1, 2}, 0o644))

	rc, ct, err := s.Open(context.Background(), "raw.bin")
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, defaultContentType, ct)
}

// TestJetStreamStore needs a NATS server with JetStream; set NATS_TEST_URL.
func TestJetStreamStore(t *testing.T) {
	url := os.Getenv("NATS_TEST_URL")
	if url == "" {
		t.Skip("NATS_TEST_URL not set")
	}
	nc, err := nats.Connect(url, nats.Timeout(2*time.Second))
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	bucket := "huddle-test-" + uuid.NewString()[:8]
	ctx := context.Background()
	t.Cleanup(func() { js.DeleteObjectStore(ctx, bucket) })

	s, err := NewJetStreamStore(ctx, js, bucket)
	require.NoError(t, err)

	exerciseStore(t, s)
}
