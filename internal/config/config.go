// Package config loads application configuration from environment variables
// and the YAML watch file.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all process-level configuration.
type Config struct {
	// watch file with targets, cooldowns, thresholds
	WatchFile string

	// state
	StateBackend string // "json" or "sqlite"
	StatePath    string

	// fetching
	Fetcher      string // "http" or "browser"
	FetchTimeout time.Duration
	Concurrency  int
	UserAgent    string

	// telegram
	TGBotToken string
	TGChatID   int64

	// nats (optional; empty disables publishing)
	NatsURL string

	// notifier dry-run: log messages instead of sending
	DryRun bool

	// logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		WatchFile:    getEnv("WATCH_FILE", "./watch.yaml"),
		StateBackend: getEnv("STATE_BACKEND", "json"),
		StatePath:    getEnv("STATE_PATH", "./state.json"),
		Fetcher:      getEnv("FETCHER", "http"),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
		Concurrency:  getEnvInt("CONCURRENCY", 4),
		UserAgent:    getEnv("USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"),
		TGBotToken:   getEnv("BOT_TOKEN", ""),
		TGChatID:     getEnvInt64("CHAT_ID", 0),
		NatsURL:      getEnv("NATS_URL", ""),
		DryRun:       getEnvBool("DRY_RUN", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
	}
	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
