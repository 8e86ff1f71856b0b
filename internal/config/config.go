// Package config loads runtime settings from defaults, an optional config
// file and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// Store backends
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds every runtime setting.
type Config struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	StoreBackend string `mapstructure:"store_backend"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	DatabaseURL  string `mapstructure:"database_url"`
	RedisURL     string `mapstructure:"redis_url"`

	RemoteURL   string `mapstructure:"remote_url"`
	RemoteToken string `mapstructure:"remote_token"`
	CountryID   int64  `mapstructure:"country_id"`

	SyncKinds            []string      `mapstructure:"sync_kinds"`
	SyncConcurrency      int           `mapstructure:"sync_concurrency"`
	RetryMaxAttempts     int           `mapstructure:"retry_max_attempts"`
	RetryDelay           time.Duration `mapstructure:"retry_delay"`
	RateLimitMaxAttempts int           `mapstructure:"rate_limit_max_attempts"`
	CycleTimeout         time.Duration `mapstructure:"cycle_timeout"`
	RefreshInterval      time.Duration `mapstructure:"refresh_interval"`

	JWTSecret         string        `mapstructure:"jwt_secret"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// defaults doubles as the list of known keys; viper only unmarshals
// environment values for keys it has seen.
var defaults = map[string]any{
	"host":            "0.0.0.0",
	"port":            8080,
	"allowed_origins": []string{"*"},

	"store_backend": BackendSQLite,
	"sqlite_path":   "signpost.db",
	"database_url":  "",
	"redis_url":     "",

	"remote_url":   "",
	"remote_token": "",
	"country_id":   0,

	"sync_kinds":              []string{},
	"sync_concurrency":        1,
	"retry_max_attempts":      50,
	"retry_delay":             5 * time.Second,
	"rate_limit_max_attempts": 3,
	"cycle_timeout":           time.Duration(0),
	"refresh_interval":        15 * time.Minute,

	"jwt_secret":          "development-secret-change-in-production",
	"admin_password_hash": "",
	"token_ttl":           24 * time.Hour,

	"log_level":  "info",
	"log_format": "text",
}

// Load reads the configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	// PORT, DATABASE_URL, SYNC_KINDS, ...
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.SyncKinds = splitList(cfg.SyncKinds)
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	return &cfg, nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite backend requires SQLITE_PATH", domain.ErrInvalidInput)
		}
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres backend requires DATABASE_URL", domain.ErrInvalidInput)
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis backend requires REDIS_URL", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, c.StoreBackend)
	}

	if _, err := c.Kinds(); err != nil {
		return err
	}
	if c.RetryMaxAttempts <= 0 {
		return fmt.Errorf("%w: RETRY_MAX_ATTEMPTS must be positive", domain.ErrInvalidInput)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: RETRY_DELAY must not be negative", domain.ErrInvalidInput)
	}
	if c.RateLimitMaxAttempts <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_MAX_ATTEMPTS must be positive", domain.ErrInvalidInput)
	}
	if c.SyncConcurrency <= 0 {
		return fmt.Errorf("%w: SYNC_CONCURRENCY must be positive", domain.ErrInvalidInput)
	}
	if c.CycleTimeout < 0 || c.RefreshInterval < 0 {
		return fmt.Errorf("%w: timeouts and intervals must not be negative", domain.ErrInvalidInput)
	}
	if c.CountryID < 0 {
		return fmt.Errorf("%w: COUNTRY_ID must not be negative", domain.ErrInvalidInput)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: LOG_FORMAT must be text or json", domain.ErrInvalidInput)
	}
	return nil
}

// RequireRemote checks the settings needed to talk to the content API.
func (c *Config) RequireRemote() error {
	if c.RemoteURL == "" {
		return fmt.Errorf("%w: REMOTE_URL is required", domain.ErrInvalidInput)
	}
	return nil
}

// Kinds returns the configured entity kinds, all of them when none are set.
func (c *Config) Kinds() ([]domain.EntityKind, error) {
	if len(c.SyncKinds) == 0 {
		return domain.AllKinds(), nil
	}
	return domain.ParseEntityKinds(c.SyncKinds)
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL %q", domain.ErrInvalidInput, c.LogLevel)
	}
	return level, nil
}
