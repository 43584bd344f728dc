package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort string

	// DBDriver is "postgres" or "sqlite".
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// RedisURL is a redis:// URL or host:port. Empty disables the room cache.
	RedisURL     string
	RoomCacheTTL time.Duration

	// NATSURL enables the JetStream blob store and the cross-instance
	// event relay. Empty falls back to BlobDir and a local hub.
	NATSURL       string
	BlobBucket    string
	BlobDir       string
	PublicBaseURL string

	MaxUploadBytes  int64
	LogFormat       string
	ShutdownTimeout time.Duration
}

func Load() *Config {
	port := getEnv("SERVER_PORT", "8080")
	return &Config{
		ServerPort:      port,
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "huddle"),
		DBPassword:      getEnv("DB_PASSWORD", "huddle_dev_password"),
		DBName:          getEnv("DB_NAME", "huddle"),
		SQLitePath:      getEnv("SQLITE_PATH", "huddle.db"),
		RedisURL:        getEnv("REDIS_URL", ""),
		RoomCacheTTL:    getEnvDuration("ROOM_CACHE_TTL", 10*time.Minute),
		NATSURL:         getEnv("NATS_URL", ""),
		BlobBucket:      getEnv("BLOB_BUCKET", "huddle-attachments"),
		BlobDir:         getEnv("BLOB_DIR", "uploads"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 20<<20),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
