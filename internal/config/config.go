// Package config loads server configuration from the environment.
//
// Priority (highest to lowest):
//  1. Environment variables (e.g. SESSION_BACKEND=redis)
//  2. .env file in the working directory
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session persistence backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Session   SessionConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Receiving ReceivingConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Env  string
	Port string
}

// IsDevelopment reports whether the server runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string // debug, info, warn, error
}

// SessionConfig selects where receiving sessions are persisted.
type SessionConfig struct {
	Backend string
	TTL     time.Duration
	// CompressThreshold is the snapshot size in bytes above which the
	// postgres backend compresses values.
	CompressThreshold int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// ReceivingConfig tunes receiving line validation.
type ReceivingConfig struct {
	StrictWholesaleMinimum bool
	LineIDStrategy         string
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_BACKEND", BackendMemory)
	v.SetDefault("SESSION_TTL", "72h")
	v.SetDefault("SNAPSHOT_COMPRESS_THRESHOLD", 8*1024)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_CONNS", 10)
	v.SetDefault("RECEIVING_STRICT_WHOLESALE_MINIMUM", false)
	v.SetDefault("LINE_ID_STRATEGY", "uuid")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("APP_ENV"),
			Port: v.GetString("APP_PORT"),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
		},
		Session: SessionConfig{
			Backend:           strings.ToLower(v.GetString("SESSION_BACKEND")),
			TTL:               v.GetDuration("SESSION_TTL"),
			CompressThreshold: v.GetInt("SNAPSHOT_COMPRESS_THRESHOLD"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DATABASE_MAX_CONNS"),
		},
		Receiving: ReceivingConfig{
			StrictWholesaleMinimum: v.GetBool("RECEIVING_STRICT_WHOLESALE_MINIMUM"),
			LineIDStrategy:         strings.ToLower(v.GetString("LINE_ID_STRATEGY")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UsesPostgres reports whether any component needs a database connection.
// Receipts are written to PostgreSQL whenever DATABASE_URL is set.
func (c *Config) UsesPostgres() bool {
	return c.Session.Backend == BackendPostgres || c.Database.URL != ""
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q: must be memory, redis or postgres", c.Session.Backend)
	}

	if c.Session.Backend == BackendPostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND is postgres")
	}

	switch c.Receiving.LineIDStrategy {
	case "uuid", "sequence":
	default:
		return fmt.Errorf("invalid LINE_ID_STRATEGY %q: must be uuid or sequence", c.Receiving.LineIDStrategy)
	}

	if c.Session.TTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}

	if c.App.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	return nil
}

// isMissingFile reports a missing .env file. viper returns
// ConfigFileNotFoundError only when searching paths, not for SetConfigFile.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
