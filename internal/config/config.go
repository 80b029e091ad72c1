package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SHOPLIST_"

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// Barcode lookup
	LookupBaseURL  string
	LookupTimeout  time.Duration
	LookupCacheTTL time.Duration

	// APITokenHash is a bcrypt hash of the bearer token clients must send.
	// Empty leaves the API open.
	APITokenHash string

	ScanSessionTTL time.Duration
}

// Load reads an optional .env file followed by SHOPLIST_* environment
// variables. Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		DBPath:        getenv("DB_PATH", "shoplist.db"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "text"),
		LookupBaseURL: getenv("LOOKUP_BASE_URL", ""),
		APITokenHash:  getenv("API_TOKEN_HASH", ""),
	}

	var err error
	if cfg.LookupTimeout, err = duration("LOOKUP_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.LookupCacheTTL, err = duration("LOOKUP_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ScanSessionTTL, err = duration("SCAN_SESSION_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s%s: must be positive", envPrefix, key)
	}
	return d, nil
}
