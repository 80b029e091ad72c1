package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "LOOKUP_BASE_URL",
		"LOOKUP_TIMEOUT", "LOOKUP_CACHE_TTL", "API_TOKEN_HASH", "SCAN_SESSION_TTL",
	} {
		t.Setenv(envPrefix+key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "shoplist.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.LookupBaseURL)
	assert.Equal(t, 5*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 24*time.Hour, cfg.LookupCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.ScanSessionTTL)
	assert.Empty(t, cfg.APITokenHash)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPLIST_PORT", "9090")
	t.Setenv("SHOPLIST_DB_PATH", "/tmp/lists.db")
	t.Setenv("SHOPLIST_LOOKUP_TIMEOUT", "750ms")
	t.Setenv("SHOPLIST_SCAN_SESSION_TTL", "2m")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/lists.db", cfg.DBPath)
	assert.Equal(t, 750*time.Millisecond, cfg.LookupTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ScanSessionTTL)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, even to "".
	os.Unsetenv("SHOPLIST_PORT")
	os.Unsetenv("SHOPLIST_LOG_LEVEL")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHOPLIST_PORT=7000\nSHOPLIST_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SHOPLIST_PORT")
		os.Unsetenv("SHOPLIST_LOG_LEVEL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalidDuration(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"garbage", "SHOPLIST_LOOKUP_TIMEOUT", "soon"},
		{"negative", "SHOPLIST_LOOKUP_CACHE_TTL", "-1h"},
		{"zero", "SHOPLIST_SCAN_SESSION_TTL", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
