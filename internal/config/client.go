package config

import "github.com/vedran77/huddle/internal/domain"

// ClientConfig configures the terminal client. Flags in cmd/huddle override
// these values.
type ClientConfig struct {
	ServerURL string
	Room      string
	// Name overrides the remembered identity when set.
	Name         string
	IdentityFile string

	// SpeechURL enables /voice. Empty disables dictation.
	SpeechURL     string
	SpeechAPIKey  string
	SpeechModel   string
	MaxAudioBytes int64

	// LogFile receives the client's logs so they don't draw over the UI.
	LogFile string
}

func LoadClient() *ClientConfig {
	return &ClientConfig{
		ServerURL:     getEnv("HUDDLE_SERVER", "http://localhost:8080"),
		Room:          getEnv("HUDDLE_ROOM", domain.DefaultRoomSlug),
		Name:          getEnv("HUDDLE_NAME", ""),
		IdentityFile:  getEnv("HUDDLE_IDENTITY_FILE", ""),
		SpeechURL:     getEnv("SPEECH_URL", ""),
		SpeechAPIKey:  getEnv("SPEECH_API_KEY", ""),
		SpeechModel:   getEnv("SPEECH_MODEL", "whisper-1"),
		MaxAudioBytes: getEnvInt64("SPEECH_MAX_BYTES", 10<<20),
		LogFile:       getEnv("HUDDLE_LOG_FILE", "huddle.log"),
	}
}
