package speech

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranscript(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "object", body: `{"text":" hello there "}`, want: "hello there"},
		{name: "array", body: `[{"text":"hello"},{"text":""},{"text":"there"}]`, want: "hello there"},
		{name: "empty array", body: `[]`, want: ""},
		{name: "no text field", body: `{}`, want: ""},
		{name: "null", body: `null`, want: ""},
		{name: "empty body", body: ``, want: ""},
		{name: "garbage", body: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranscript([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transcribePath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "tiny", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "recording.wav", header.Filename)
		assert.Equal(t, "RIFF-audio", string(data))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"hello world"}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "secret", Model: "tiny"}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	text, err := c.Recognize(context.Background(), []byte("RIFF-audio"))

	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestRecognize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	text, err := c.Recognize(context.Background(), []byte("x"))

	assert.Empty(t, text)
	assert.ErrorContains(t, err, "503")
}
