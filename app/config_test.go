package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.DBAutoMigrate)
	assert.NotEmpty(t, cfg.DatabaseURL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("REMOTE_TIMEOUT", "250ms")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AppAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.RemoteTimeout)
	assert.True(t, cfg.DBAutoMigrate)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	require.NoError(t, os.Unsetenv("RATE_LIMIT_PER_MINUTE"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nRATE_LIMIT_PER_MINUTE=5\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"Negative timeout", "REMOTE_TIMEOUT", "-1s"},
		{"Unparsable timeout", "REMOTE_TIMEOUT", "soon"},
		{"Empty database url", "DATABASE_URL", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)

	log.Info("hidden")
	log.Warn("shown", "store", "categories")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "categories", entry["store"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
