// Package config reads process configuration from the environment. Binaries import
// github.com/joho/godotenv/autoload so a local .env file is honoured as well.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Port     string
	LogLevel logrus.Level

	// AllowedOrigins is empty when any origin may call the HTTP routes.
	AllowedOrigins []string

	// RoomIdleTimeout of zero keeps abandoned rooms forever.
	RoomIdleTimeout  time.Duration
	RoomReapInterval time.Duration

	Redis     RedisConfig
	Postgres  PostgresConfig
	Historian HistorianConfig
}

type RedisConfig struct {
	// Addr is empty when session event recording is off.
	Addr  string
	DB    int
	Queue string
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

// URL is the pgx connection string.
func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

type HistorianConfig struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a room may stay silent before its session is marked abandoned.
	Inactivity time.Duration
}

// Load builds a Config from the environment, falling back to defaults for unset keys.
func Load() (Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         level,
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS"),
		RoomIdleTimeout:  getEnvDuration("ROOM_IDLE_TIMEOUT", 24*time.Hour),
		RoomReapInterval: getEnvDuration("ROOM_REAP_INTERVAL", 5*time.Minute),
		Redis: RedisConfig{
			Addr:  getEnv("REDIS_ADDR", ""),
			DB:    getEnvInt("REDIS_DB", 0),
			Queue: getEnv("SESSION_EVENT_QUEUE", "jobi_session_events"),
		},
		Postgres: PostgresConfig{
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Database: getEnv("PG_DATABASE", "jobi"),
		},
		Historian: HistorianConfig{
			BatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
			FlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
			Inactivity: getEnvDuration("HISTORIAN_INACTIVITY_TIMEOUT", 10*time.Minute),
		},
	}

	if cfg.RoomIdleTimeout < 0 {
		return Config{}, fmt.Errorf("ROOM_IDLE_TIMEOUT must not be negative, got %s", cfg.RoomIdleTimeout)
	}
	if cfg.RoomIdleTimeout > 0 && cfg.RoomReapInterval <= 0 {
		return Config{}, fmt.Errorf("ROOM_REAP_INTERVAL must be positive, got %s", cfg.RoomReapInterval)
	}
	if cfg.Historian.BatchSize < 1 {
		cfg.Historian.BatchSize = 1
	}
	return cfg, nil
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

// getEnvDuration accepts Go duration strings ("90s", "24h") or a bare number of seconds.
func getEnvDuration(key string, defVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defVal
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
