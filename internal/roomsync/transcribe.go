package roomsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultMaxAudioBytes bounds one recording.
const DefaultMaxAudioBytes = 10 << 20

// Transcriber turns a recording into text for the draft. It holds no state
// and knows nothing about the message store.
type Transcriber struct {
	recognizer SpeechRecognizer
	maxBytes   int64
	logger     *slog.Logger
}

func NewTranscriber(recognizer SpeechRecognizer, maxBytes int64, logger *slog.Logger) *Transcriber {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAudioBytes
	}
	return &Transcriber{recognizer: recognizer, maxBytes: maxBytes, logger: logger}
}

// Transcribe returns the recognized text. An empty string with a nil error
// means no speech was detected.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(audio, t.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading audio: %w", ErrTranscription, err)
	}
	if int64(len(data)) > t.maxBytes {
		return "", fmt.Errorf("%w: recording larger than %d bytes", ErrTranscription, t.maxBytes)
	}
	if len(data) == 0 {
		return "", nil
	}

	text, err := t.recognizer.Recognize(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return strings.TrimSpace(text), nil
}

// Dictate transcribes audio and appends the result to draft. On failure the
// draft is left untouched and the error is only a warning for the caller.
func (t *Transcriber) Dictate(ctx context.Context, draft *Draft, audio io.Reader) (string, error) {
	text, err := t.Transcribe(ctx, audio)
	if err != nil {
		t.logger.Warn("transcription failed", "error", err)
		return "", err
	}
	draft.Append(text)
	return text, nil
}
