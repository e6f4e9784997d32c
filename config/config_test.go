package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "DB_PATH", "CACHE_CAPACITY", "HISTORY_CAPACITY", "ALLOWED_ORIGINS",
	"REMINDER_INTERVAL", "REMINDERS_ENABLED", "SESSION_TTL",
}

// clearEnv unsets every key for the test, restoring values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// inTempDir runs the test from an empty directory so no .env is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "wheelplan.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.CacheCapacity)
	assert.Equal(t, 100, cfg.HistoryCapacity)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.True(t, cfg.RemindersEnabled)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	inTempDir(t)

	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_CAPACITY", "5")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("REMINDER_INTERVAL", "15m")
	t.Setenv("REMINDERS_ENABLED", "false")
	t.Setenv("HISTORY_CAPACITY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5, cfg.CacheCapacity)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.ReminderInterval)
	assert.False(t, cfg.RemindersEnabled)
	assert.Equal(t, 100, cfg.HistoryCapacity, "malformed values fall back to defaults")
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=from-dotenv.db\nPORT=7070\n"), 0o600))

	// Real environment wins over .env.
	t.Setenv("PORT", "6060")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.DBPath)
	assert.Equal(t, 6060, cfg.Port)
}

func TestValidate(t *testing.T) {
	good := Config{
		Port: 8080, DBPath: "x.db", CacheCapacity: 1, HistoryCapacity: 1,
		ReminderInterval: time.Minute, RemindersEnabled: true, SessionTTL: time.Minute,
	}
	require.NoError(t, good.Validate())

	bad := good
	bad.Port = 0
	bad.CacheCapacity = -1
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "CACHE_CAPACITY")

	off := good
	off.RemindersEnabled = false
	off.ReminderInterval = 0
	assert.NoError(t, off.Validate(), "interval is irrelevant when reminders are off")
}
