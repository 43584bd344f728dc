// Package speech calls an OpenAI-compatible transcription endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultModel    = "whisper-1"
	transcribePath  = "/v1/audio/transcriptions"
	defaultTimeout  = 60 * time.Second
	maxResponseSize = 1 << 20
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client implements roomsync.SpeechRecognizer.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	logger   *slog.Logger
}

func New(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + transcribePath,
		apiKey:   cfg.APIKey,
		model:    model,
		http:     httpClient,
		logger:   logger.With("component", "speech"),
	}
}

// Recognize uploads one recording and returns the transcript. An empty
// transcript is not an error.
func (c *Client) Recognize(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("model", c.model); err != nil {
		return "", err
	}
	part, err := form.CreateFormFile("file", "recording.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling speech service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading speech response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("speech service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	text, err := parseTranscript(data)
	if err != nil {
		return "", err
	}
	c.logger.Debug("transcribed", "bytes", len(audio), "chars", len(text))
	return text, nil
}

type segment struct {
	Text string `json:"text"`
}

// parseTranscript accepts either {"text": ...} or a list of such objects.
func parseTranscript(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	if data[0] == '[' {
		var segments []segment
		if err := json.Unmarshal(data, &segments); err != nil {
			return "", fmt.Errorf("decoding speech response: %w", err)
		}
		parts := make([]string, 0, len(segments))
		for _, s := range segments {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, " "), nil
	}

	var s segment
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("decoding speech response: %w", err)
	}
	return strings.TrimSpace(s.Text), nil
}
