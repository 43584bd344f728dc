package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/vedran77/huddle/internal/blob"
	"github.com/vedran77/huddle/internal/domain"
)

var (
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	ErrUploadEmpty    = errors.New("upload is empty")
	ErrUploadKey      = errors.New("upload key must be a plain file name")
)

type UploadService struct {
	store    blob.Store
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

func NewUploadService(store blob.Store, maxBytes int64, logger *slog.Logger) *UploadService {
	return &UploadService{
		store:    store,
		maxBytes: maxBytes,
		logger:   logger.With("component", "uploads"),
		now:      time.Now,
	}
}

func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores body under a fresh key derived from name and returns the
// attachment to put on a message.
func (s *UploadService) Upload(ctx context.Context, name, declaredType string, body io.Reader) (*domain.Attachment, error) {
	return s.put(ctx, domain.AttachmentPath(name, s.now()), name, declaredType, body)
}

// Store keeps body under a key the client already chose, so the attachment
// path it puts on the message matches the stored blob.
func (s *UploadService) Store(ctx context.Context, key, declaredType string, body io.Reader) (*domain.Attachment, error) {
	if key == "" || domain.SanitizeFilename(key) != key {
		return nil, ErrUploadKey
	}
	return s.put(ctx, key, key, declaredType, body)
}

func (s *UploadService) put(ctx context.Context, key, name, declaredType string, body io.Reader) (*domain.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, ErrUploadEmpty
	}

	att := &domain.Attachment{
		Path:      key,
		MediaType: mediaType(name, declaredType, data),
	}
	if err := s.store.Put(ctx, att.Path, data, att.MediaType); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	s.logger.Info("upload stored", "path", att.Path, "media_type", att.MediaType, "bytes", len(data))
	return att, nil
}

func (s *UploadService) Open(ctx context.Context, path string) (io.ReadCloser, string, error) {
	return s.store.Open(ctx, path)
}

// mediaType trusts a specific declared type, then the extension, then the
// bytes themselves.
func mediaType(name, declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
