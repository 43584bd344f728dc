package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/huddle/internal/blob"
)

func TestUploadService_Upload(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		declared string
		body     []byte
		wantType string
		wantPath string
	}{
		{name: "declared type wins", file: "file.png", declared: "image/webp", body: []byte("x"), wantType: "image/webp", wantPath: "123-file.png"},
		{name: "extension", file: "file.png", declared: "application/octet-stream", body: []byte("x"), wantType: "image/png", wantPath: "123-file.png"},
		{name: "sniffed", file: "scan", body: []byte("%PDF-1.7\n"), wantType: "application/pdf", wantPath: "123-scan"},
		{name: "sanitized name", file: "../my notes.json", body: []byte("{}"), wantType: "application/json", wantPath: "123-my_notes.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryBlobs()
			svc := NewUploadService(store, 1024, discardLogger())
			svc.now = func() time.Time { return time.UnixMilli(123) }

			att, err := svc.Upload(context.Background(), tt.file, tt.declared, bytes.NewReader(tt.body))

			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, att.Path)
			assert.Equal(t, tt.wantType, att.MediaType)
			assert.Equal(t, tt.body, store.objects[att.Path])
		})
	}
}

func TestUploadService_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		putErr  error
		wantErr error
	}{
		{name: "too large", body: strings.Repeat("x", 9), wantErr: ErrUploadTooLarge},
		{name: "empty", body: "", wantErr: ErrUploadEmpty},
		{name: "store fails", body: "x", putErr: errors.New("bucket gone")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryBlobs()
			store.err = tt.putErr
			svc := NewUploadService(store, 8, discardLogger())

			att, err := svc.Upload(context.Background(), "a.txt", "", strings.NewReader(tt.body))

			assert.Nil(t, att)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.ErrorIs(t, err, tt.putErr)
			}
			assert.Empty(t, store.objects)
		})
	}
}

func TestUploadService_Store(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "client key kept", key: "123-file.png"},
		{name: "traversal", key: "../file.png", wantErr: ErrUploadKey},
		{name: "separator", key: "a/b.png", wantErr: ErrUploadKey},
		{name: "space", key: "my file.png", wantErr: ErrUploadKey},
		{name: "empty", key: "", wantErr: ErrUploadKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryBlobs()
			svc := NewUploadService(store, 1024, discardLogger())

			att, err := svc.Store(context.Background(), tt.key, "", strings.NewReader("data"))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, store.objects)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, att.Path)
			assert.Equal(t, "image/png", att.MediaType)
			assert.Equal(t, []byte("data"), store.objects[tt.key])
		})
	}
}

func TestUploadService_Open(t *testing.T) {
	store := newMemoryBlobs()
	svc := NewUploadService(store, 1024, discardLogger())
	att, err := svc.Upload(context.Background(), "a.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)

	rc, ct, err := svc.Open(context.Background(), att.Path)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "text/plain", ct)

	_, _, err = svc.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}
