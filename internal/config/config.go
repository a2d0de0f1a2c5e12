// Package config loads server settings.
//
// PRECEDENCE (lowest to highest):
//  1. Defaults()
//  2. YAML file, if a path is given (flag or CONFIG_FILE)
//  3. Environment variables, including ones loaded from .env
//
// The .env file never overrides a variable that is already set in the real
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const minSecretLength = 16

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig selects the store by URL scheme:
// postgres:// or postgresql:// for Postgres, sqlite://, file: or a bare path
// for SQLite.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// AuthConfig mirrors auth.Config. At least one of Secret or JWKSURL is needed.
type AuthConfig struct {
	Secret       string        `yaml:"secret"`
	JWKSURL      string        `yaml:"jwksURL"`
	Issuer       string        `yaml:"issuer"`
	Audience     string        `yaml:"audience"`
	Leeway       time.Duration `yaml:"leeway"`
	JWKSCacheTTL time.Duration `yaml:"jwksCacheTTL"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			URL: "sqlite://data/bookstore.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			Leeway:       30 * time.Second,
			JWKSCacheTTL: 5 * time.Minute,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// CONFIG_FILE is consulted; if both are empty no file is read.
func Load(path string) (Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load(".env")

	cfg := Defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_JWKS_URL"); v != "" {
		cfg.Auth.JWKSURL = v
	}
	if v := os.Getenv("AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("AUTH_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"AUTH_LEEWAY", &cfg.Auth.Leeway},
		{"AUTH_JWKS_CACHE_TTL", &cfg.Auth.JWKSCacheTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("config: database url is required (DATABASE_URL)")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("config: log format must be text or json, got %q", c.Log.Format)
	}
	if c.Auth.Secret == "" && c.Auth.JWKSURL == "" {
		return errors.New("config: AUTH_SECRET or AUTH_JWKS_URL is required")
	}
	if c.Auth.Secret != "" && len(c.Auth.Secret) < minSecretLength {
		return fmt.Errorf("config: AUTH_SECRET must be at least %d characters", minSecretLength)
	}
	if c.Auth.Leeway < 0 {
		return errors.New("config: auth leeway must not be negative")
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("config: invalid log level %q", l.Level)
	}
	return level, nil
}
