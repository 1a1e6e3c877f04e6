package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(mapEnv(map[string]string{
		"TELEGRAM_TOKEN": "token",
		"DB_DSN":         "postgres://localhost/relay",
	}), DefaultEnvFile)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.LogLevel)
	assert.Equal(t, int32(2), cfg.DBMinConns)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 5*time.Second, cfg.DBAcquireTimeout)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, int64(50), cfg.Limits.FreeMessageLimit)
	assert.True(t, cfg.Limits.Enabled)
	assert.Equal(t, 30, cfg.Limits.RetentionDays)
	assert.Empty(t, cfg.Limits.BypassIDs)
}

func TestFromEnvRequired(t *testing.T) {
	_, err := FromEnv(mapEnv(map[string]string{"TELEGRAM_TOKEN": "token"}), "")
	assert.ErrorContains(t, err, "DB_DSN")

	_, err = FromEnv(mapEnv(map[string]string{"DB_DSN": "postgres://"}), "")
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
}

func TestFromEnvInvalid(t *testing.T) {
	base := map[string]string{"TELEGRAM_TOKEN": "token", "DB_DSN": "postgres://"}

	tests := map[string]string{
		"DB_MAX_CONNS":       "many",
		"DB_ACQUIRE_TIMEOUT": "soon",
		"FREE_MESSAGE_LIMIT": "1.5",
		"LIMIT_ENABLED":      "maybe",
		"RETENTION_DAYS":     "0",
		"LIMIT_BYPASS_IDS":   "1,two",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			env := map[string]string{key: value}
			for k, v := range base {
				env[k] = v
			}
			_, err := FromEnv(mapEnv(env), "")
			assert.Error(t, err)
		})
	}

	env := map[string]string{"DB_MIN_CONNS": "8", "DB_MAX_CONNS": "4"}
	for k, v := range base {
		env[k] = v
	}
	_, err := FromEnv(mapEnv(env), "")
	assert.ErrorContains(t, err, "invalid pool size")
}

func TestLimitsFromEnv(t *testing.T) {
	l, err := LimitsFromEnv(mapEnv(map[string]string{
		"FREE_MESSAGE_LIMIT": "3",
		"LIMIT_ENABLED":      "false",
		"RETENTION_DAYS":     "7",
		"LIMIT_BYPASS_IDS":   " 1001, 42 ,,",
	}))
	require.NoError(t, err)

	assert.Equal(t, int64(3), l.FreeMessageLimit)
	assert.False(t, l.Enabled)
	assert.Equal(t, 7*24*time.Hour, l.Retention())
	assert.True(t, l.Bypassed(1001))
	assert.True(t, l.Bypassed(42))
	assert.False(t, l.Bypassed(7))
}

func TestLimitsFromEnvRejectsNonPositive(t *testing.T) {
	for _, key := range []string{"FREE_MESSAGE_LIMIT", "RETENTION_DAYS"} {
		for _, value := range []string{"0", "-5"} {
			t.Run(key+"="+value, func(t *testing.T) {
				_, err := LimitsFromEnv(mapEnv(map[string]string{key: value}))
				assert.ErrorContains(t, err, key)
			})
		}
	}
}

func TestLimitsStoreReload(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FREE_MESSAGE_LIMIT=3\n"), 0o600))

	// t.Setenv восстановит значения после теста, Overload пишет в те же переменные
	t.Setenv("FREE_MESSAGE_LIMIT", "")
	t.Setenv("LIMIT_ENABLED", "")
	t.Setenv("RETENTION_DAYS", "")
	t.Setenv("LIMIT_BYPASS_IDS", "")

	store := NewLimitsStore(envFile, Limits{FreeMessageLimit: 50, Enabled: true, RetentionDays: 30})
	assert.Equal(t, int64(50), store.Limits().FreeMessageLimit)

	l, err := store.Reload()
	require.NoError(t, err)
	assert.Equal(t, int64(3), l.FreeMessageLimit)
	assert.Equal(t, int64(3), store.Limits().FreeMessageLimit)

	require.NoError(t, os.WriteFile(envFile, []byte("RETENTION_DAYS=0\n"), 0o600))
	_, err = store.Reload()
	assert.Error(t, err)
	assert.Equal(t, int64(3), store.Limits().FreeMessageLimit, "broken reload keeps previous limits")

	require.NoError(t, os.WriteFile(envFile, []byte("RETENTION_DAYS=7\nFREE_MESSAGE_LIMIT=0\n"), 0o600))
	_, err = store.Reload()
	assert.ErrorContains(t, err, "FREE_MESSAGE_LIMIT")
	assert.Equal(t, int64(3), store.Limits().FreeMessageLimit)
}
