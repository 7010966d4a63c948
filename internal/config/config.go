package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBPath            string
	LogLevel          string
	NotesURL          string
	QBankURL          string
	LongQBankURLs     []string
	AliasPath         string
	LongFormThreshold int
	BattleLength      int
	ReloadWorkerCount int
	ReloadQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBPath:            envOr("DB_PATH", "file:medquest.db"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		NotesURL:          envOr("NOTES_URL", ""),
		QBankURL:          envOr("QBANK_URL", ""),
		LongQBankURLs:     envListOr("LONG_QBANK_URLS", nil),
		AliasPath:         envOr("ALIAS_PATH", ""),
		LongFormThreshold: envIntOr("LONG_FORM_THRESHOLD", 280),
		BattleLength:      envIntOr("BATTLE_LENGTH", 10),
		ReloadWorkerCount: envIntOr("RELOAD_WORKER_COUNT", 1),
		ReloadQueueSize:   envIntOr("RELOAD_QUEUE_SIZE", 8),
	}
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.NotesURL == "" {
		return fmt.Errorf("NOTES_URL is required")
	}
	if c.QBankURL == "" {
		return fmt.Errorf("QBANK_URL is required")
	}
	if c.LongFormThreshold <= 0 {
		return fmt.Errorf("LONG_FORM_THRESHOLD must be positive, got %d", c.LongFormThreshold)
	}
	if c.BattleLength <= 0 {
		return fmt.Errorf("BATTLE_LENGTH must be positive, got %d", c.BattleLength)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

// envListOr parses a comma-separated list, dropping empty elements.
func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
