// Package client talks to a huddle server over its REST API and WebSocket
// feed. Client satisfies roomsync.RoomStore and roomsync.BlobStore; Feed
// satisfies roomsync.ChangeFeed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/roomsync"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New returns a client for the server at baseURL. A nil httpClient gets a
// default one with a request timeout.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.With("component", "api"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) FindRoom(ctx context.Context, slug string) (*domain.Room, error) {
	var room domain.Room
	err := c.do(ctx, http.MethodGet, "/api/v1/rooms/"+url.PathEscape(slug), nil, &room)
	if isStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) CreateRoom(ctx context.Context, name, slug string) (*domain.Room, error) {
	body := map[string]string{"name": name, "slug": slug}
	var room domain.Room
	err := c.do(ctx, http.MethodPost, "/api/v1/rooms", body, &room)
	if isStatus(err, http.StatusConflict) {
		return nil, fmt.Errorf("%w: %w", roomsync.ErrRoomExists, err)
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	if err := c.do(ctx, http.MethodGet, "/api/v1/rooms/"+roomID.String()+"/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) InsertMessage(ctx context.Context, msg roomsync.NewMessage) (*domain.Message, error) {
	var created domain.Message
	if err := c.do(ctx, http.MethodPost, "/api/v1/rooms/"+msg.RoomID.String()+"/messages", msg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/messages/"+id.String(), nil, nil)
}

type uploadResponse struct {
	domain.Attachment
	URL string `json:"url"`
}

// Upload stores data under key. The server keeps the key as given.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) (domain.Attachment, error) {
	endpoint := c.baseURL + "/api/v1/uploads?key=" + url.QueryEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return domain.Attachment{}, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	var up uploadResponse
	if err := c.send(req, &up); err != nil {
		return domain.Attachment{}, err
	}
	return up.Attachment, nil
}

func (c *Client) PublicURL(path string) string {
	return c.baseURL + "/api/v1/uploads/" + url.PathEscape(path)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		c.logger.Debug("request failed", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "code", apiErr.Code)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
