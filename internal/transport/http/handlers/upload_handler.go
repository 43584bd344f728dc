package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vedran77/huddle/internal/blob"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/service"
)

type UploadHandler struct {
	uploadService *service.UploadService
	publicBaseURL string
	logger        *slog.Logger
}

func NewUploadHandler(uploadService *service.UploadService, publicBaseURL string, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

type UploadResponse struct {
	domain.Attachment
	URL string `json:"url"`
}

// Upload takes the raw file as the request body. ?key= stores it under a key
// the client picked; ?name= lets the server derive one.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	name := r.URL.Query().Get("name")
	if key == "" && strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "MISSING_NAME", "File name is required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.uploadService.MaxBytes()+1)
	contentType := r.Header.Get("Content-Type")

	var (
		att *domain.Attachment
		err error
	)
	if key != "" {
		att, err = h.uploadService.Store(r.Context(), key, contentType, body)
	} else {
		att, err = h.uploadService.Upload(r.Context(), name, contentType, body)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, service.ErrUploadTooLarge), errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "File is too large")
		case errors.Is(err, service.ErrUploadEmpty):
			writeError(w, http.StatusBadRequest, "EMPTY_FILE", "File is empty")
		case errors.Is(err, service.ErrUploadKey):
			writeError(w, http.StatusBadRequest, "INVALID_KEY", "Upload key must be a plain file name")
		default:
			h.logger.Error("upload", "key", key, "name", name, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{Attachment: *att, URL: h.PublicURL(att.Path)})
}

func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	rc, contentType, err := h.uploadService.Open(r.Context(), path)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidKey) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
		} else {
			h.logger.Error("download", "path", path, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("download interrupted", "path", path, "error", err)
	}
}

// PublicURL is where clients fetch an uploaded attachment.
func (h *UploadHandler) PublicURL(path string) string {
	return h.publicBaseURL + "/api/v1/uploads/" + url.PathEscape(path)
}
