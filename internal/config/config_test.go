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
		"CONFIG_PATH", "ENV", "STORAGE", "DB_DSN", "DB_MAX_CONNS", "MIGRATIONS_DIR", "OPS_ADDR",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
		"BOOKING_MAX_ATTEMPTS", "DISTANCE_CACHE_SIZE", "DISTANCE_CACHE_TTL", "DISTANCE_REFRESH_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/rooms")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 5, cfg.Booking.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Distance.CacheTTL)
	assert.Equal(t, ":9090", cfg.OpsAddr)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
db_dsn: postgres://${DB_USER}@db/rooms
redis:
  addr: redis:6379
  db: 2
telegram:
  token: abc
  chat_id: -100123
booking:
  max_attempts: 3
distance:
  cache_ttl: 5m
  refresh_interval: 30m
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DB_USER", "booker")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("DISTANCE_CACHE_TTL", "90s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "postgres://booker@db/rooms", cfg.DBDSN)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Redis.DB)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
	assert.Equal(t, 3, cfg.Booking.MaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.Distance.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Distance.RefreshInterval)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing dsn", map[string]string{}, "DB_DSN is required"},
		{"unknown storage", map[string]string{"STORAGE": "sqlite"}, "STORAGE must be"},
		{"chat id missing", map[string]string{"STORAGE": "memory", "TELEGRAM_TOKEN": "abc"}, "TELEGRAM_CHAT_ID is required"},
		{"bad number", map[string]string{"STORAGE": "memory", "REDIS_DB": "two"}, "parse REDIS_DB"},
		{"zero attempts", map[string]string{"STORAGE": "memory", "BOOKING_MAX_ATTEMPTS": "0"}, "BOOKING_MAX_ATTEMPTS must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMemoryStorageNeedsNoDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", StorageMemory)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.DBDSN)
}
