/*
Package config loads server configuration from the environment.

PURPOSE:
  One place for every knob the server reads at startup. A .env file in the
  working directory is loaded first if present; real environment variables
  win over it. cmd/server lets -port and -db flags override both.

VARIABLES:
  PORT               HTTP port (8080)
  DB_PATH            sqlite file (wheelplan.db)
  CACHE_CAPACITY     ledgers memoized per session (50)
  HISTORY_CAPACITY   undo steps per session (100)
  ALLOWED_ORIGINS    comma-separated CORS origins
  REMINDER_INTERVAL  reminder scan period (1h)
  REMINDERS_ENABLED  run the reminder scheduler (true)
  SESSION_TTL        idle session lifetime (2h)

Malformed values fall back to the default rather than failing startup;
Validate catches values that parse but make no sense.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wheelplan/projection-engine/projection"
)

// Config holds server configuration.
type Config struct {
	Port             int
	DBPath           string
	CacheCapacity    int
	HistoryCapacity  int
	AllowedOrigins   []string
	ReminderInterval time.Duration
	RemindersEnabled bool
	SessionTTL       time.Duration
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvInt("PORT", 8080),
		DBPath:           getEnvString("DB_PATH", "wheelplan.db"),
		CacheCapacity:    getEnvInt("CACHE_CAPACITY", projection.DefaultCacheCapacity),
		HistoryCapacity:  getEnvInt("HISTORY_CAPACITY", projection.DefaultHistoryCapacity),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", defaultOrigins),
		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", time.Hour),
		RemindersEnabled: getEnvBool("REMINDERS_ENABLED", true),
		SessionTTL:       getEnvDuration("SESSION_TTL", 2*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that parse but cannot work.
func (c *Config) Validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d out of range", c.Port))
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH is empty")
	}
	if c.CacheCapacity <= 0 {
		problems = append(problems, "CACHE_CAPACITY must be positive")
	}
	if c.HistoryCapacity <= 0 {
		problems = append(problems, "HISTORY_CAPACITY must be positive")
	}
	if c.RemindersEnabled && c.ReminderInterval <= 0 {
		problems = append(problems, "REMINDER_INTERVAL must be positive")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
