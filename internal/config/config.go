/*
Copyright (C) 2026 dubpixel

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int

	DBBackend DatabaseBackend
	DBDSN     string

	// Show configuration
	StageName  string
	ShowStart  time.Time     // First item's scheduled start (RFC3339)
	BreakFloor time.Duration // Minimum projected break duration

	// Operator auth
	JWTSigningKey string

	// Schedule sync poller
	SyncInterval time.Duration

	// Lighting trigger listener
	TriggerEnabled bool
	TriggerBind    string
	TriggerPort    int
	TriggerMapPath string // YAML trigger-to-item mapping

	// Multi-instance fanout
	NATSURL       string // Empty disables the NATS publisher
	RedisAddr     string // Empty disables the Redis publisher
	RedisPassword string
	RedisDB       int

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads configuration from SETSCHED_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:       getEnv("SETSCHED_ENV", "development"),
		HTTPBind:          getEnv("SETSCHED_HTTP_BIND", "0.0.0.0"),
		HTTPPort:          getEnvInt("SETSCHED_HTTP_PORT", 8080),
		DBBackend:         DatabaseBackend(strings.ToLower(getEnv("SETSCHED_DB_BACKEND", "sqlite"))),
		DBDSN:             getEnv("SETSCHED_DB_DSN", "setschedule.db"),
		StageName:         getEnv("SETSCHED_STAGE_NAME", "Main Stage"),
		JWTSigningKey:     getEnv("SETSCHED_JWT_SIGNING_KEY", ""),
		SyncInterval:      getEnvDuration("SETSCHED_SYNC_INTERVAL", 30*time.Second),
		BreakFloor:        getEnvDuration("SETSCHED_BREAK_FLOOR", 2*time.Minute),
		TriggerEnabled:    getEnvBool("SETSCHED_TRIGGER_ENABLED", false),
		TriggerBind:       getEnv("SETSCHED_TRIGGER_BIND", "0.0.0.0"),
		TriggerPort:       getEnvInt("SETSCHED_TRIGGER_PORT", 9123),
		TriggerMapPath:    getEnv("SETSCHED_TRIGGER_MAP", "triggers.yml"),
		NATSURL:           getEnv("SETSCHED_NATS_URL", ""),
		RedisAddr:         getEnv("SETSCHED_REDIS_ADDR", ""),
		RedisPassword:     getEnv("SETSCHED_REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("SETSCHED_REDIS_DB", 0),
		TracingEnabled:    getEnvBool("SETSCHED_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("SETSCHED_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("SETSCHED_TRACING_SAMPLE_RATE", 1.0),
	}

	if raw := os.Getenv("SETSCHED_SHOW_START"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("SETSCHED_SHOW_START must be RFC3339: %w", err)
		}
		cfg.ShowStart = t
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.BreakFloor < 0 {
		return nil, fmt.Errorf("SETSCHED_BREAK_FLOOR must not be negative")
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("SETSCHED_JWT_SIGNING_KEY must be set in production")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "2m") or whole seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	if parsed, err := time.ParseDuration(val); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
