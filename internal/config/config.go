// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/taki/internal/game"
	"github.com/jason-s-yu/taki/internal/lobby"
	"github.com/sirupsen/logrus"
)

// Config is read from the environment once at startup. Binaries import
// github.com/joho/godotenv/autoload so a local .env file is honored.
type Config struct {
	Port           string
	LogLevel       logrus.Level
	AllowedOrigins []string

	Lobby lobby.Config

	// TokenTTL of zero means identity tokens never expire.
	TokenTTL time.Duration
	// TokenKeyPath names a raw ed25519 private key; empty generates one per process.
	TokenKeyPath string

	RedisAddr   string // empty disables the action history
	RedisDB     int
	QueueName   string
	DatabaseURL string

	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
	GameInactivity      time.Duration
}

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "taki_actions"

// Load parses the environment. Malformed values are errors rather than silent defaults.
func Load() (Config, error) {
	var cfg Config
	var err error

	cfg.Port = getEnv("PORT", "8080")
	cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "debug"))
	if err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "*"))

	cfg.Lobby = lobby.DefaultConfig()
	if cfg.Lobby.StartDelay, err = getEnvDuration("START_DELAY", cfg.Lobby.StartDelay); err != nil {
		return cfg, err
	}
	if cfg.Lobby.GracePeriod, err = getEnvDuration("ROOM_GRACE_PERIOD", cfg.Lobby.GracePeriod); err != nil {
		return cfg, err
	}
	if cfg.Lobby.HandSize, err = getEnvInt("HAND_SIZE", cfg.Lobby.HandSize); err != nil {
		return cfg, err
	}
	if cfg.Lobby.HandSize < 1 {
		return cfg, fmt.Errorf("HAND_SIZE must be positive, got %d", cfg.Lobby.HandSize)
	}
	taki, err := getEnvInt("TAKI_CARDS_PER_COLOR", 0)
	if err != nil {
		return cfg, err
	}
	if taki < 0 {
		return cfg, fmt.Errorf("TAKI_CARDS_PER_COLOR must not be negative, got %d", taki)
	}
	cfg.Lobby.Deck = game.DeckOptions{TakiPerColor: taki}

	if cfg.TokenTTL, err = parseTokenTTL(os.Getenv("TOKEN_EXPIRE_TIME")); err != nil {
		return cfg, err
	}

	cfg.TokenKeyPath = os.Getenv("TOKEN_PRIVATE_KEY_PATH")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	cfg.QueueName = getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if cfg.HistorianBatchSize, err = getEnvInt("HISTORIAN_BATCH_SIZE", 20); err != nil {
		return cfg, err
	}
	flushMs, err := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	if err != nil {
		return cfg, err
	}
	cfg.HistorianFlushDelay = time.Duration(flushMs) * time.Millisecond
	inactivitySec, err := getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600) // default 10 min
	if err != nil {
		return cfg, err
	}
	cfg.GameInactivity = time.Duration(inactivitySec) * time.Second

	return cfg, nil
}

// parseTokenTTL accepts "never", "0", empty, or a Go duration string.
func parseTokenTTL(s string) (time.Duration, error) {
	if s == "" || s == "never" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else returns def.
func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
