// Package config reads the server configuration from REGULARS_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "REGULARS_"

// EnvProduction is the value of REGULARS_ENV that enables the strict checks.
const EnvProduction = "production"

var (
	ErrMissingJWTSecret = errors.New("REGULARS_JWT_SECRET is required in production")
	ErrMissingCSRFKey   = errors.New("REGULARS_CSRF_KEY is required in production")
	ErrInvalidCSRFKey   = errors.New("REGULARS_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrShortJWTSecret   = errors.New("REGULARS_JWT_SECRET must be at least 32 characters")
)

// Config is the full runtime configuration of the server.
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	Addr     string `env:"ADDR" envDefault:":8080"`
	DBPath   string `env:"DB_PATH" envDefault:"regulars.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	CSRFKey   string        `env:"CSRF_KEY"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	ResendKey  string   `env:"RESEND_KEY"`
	ResendFrom string   `env:"RESEND_FROM" envDefault:"Regulars <alerts@regulars.local>"`
	AlertTo    []string `env:"ALERT_TO" envSeparator:","`

	SlowQueryMs    int           `env:"SLOW_QUERY_MS" envDefault:"100"`
	SlowRequestMs  int           `env:"SLOW_REQUEST_MS" envDefault:"200"`
	RateLimit      int           `env:"RATE_LIMIT" envDefault:"10"`
	AuditBuffer    int           `env:"AUDIT_BUFFER" envDefault:"256"`
	BulkWorkers    int           `env:"BULK_WORKERS" envDefault:"4"`
	OutboxInterval time.Duration `env:"OUTBOX_INTERVAL" envDefault:"30s"`
}

// Load reads .env (when present) into the process environment and parses it.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse(nil)
}

// Parse builds a Config from environ, or from the process environment when
// environ is nil.
// POST: returned Config passed Validate
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: Prefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the strict production checks apply.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate enforces the secrets production needs.
func (c Config) Validate() error {
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return ErrMissingJWTSecret
		}
		if c.CSRFKey == "" {
			return ErrMissingCSRFKey
		}
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return ErrShortJWTSecret
	}
	if c.CSRFKey != "" {
		if _, err := decodeCSRFKey(c.CSRFKey); err != nil {
			return err
		}
	}
	return nil
}

// CSRFKeyBytes returns the configured CSRF key, or a random one outside
// production. A random key does not survive a restart.
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey != "" {
		return decodeCSRFKey(c.CSRFKey)
	}
	if c.IsProduction() {
		return nil, ErrMissingCSRFKey
	}
	slog.Warn("config_event", "event", "random_csrf_key", "hint", "set REGULARS_CSRF_KEY")
	return randomBytes(32)
}

// JWTSecretBytes returns the token signing secret, or a random one outside
// production. Tokens signed with a random secret die with the process.
func (c Config) JWTSecretBytes() ([]byte, error) {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret), nil
	}
	if c.IsProduction() {
		return nil, ErrMissingJWTSecret
	}
	slog.Warn("config_event", "event", "random_jwt_secret", "hint", "set REGULARS_JWT_SECRET")
	return randomBytes(32)
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SlowQueryThreshold is SlowQueryMs as a duration.
func (c Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// SlowRequestThreshold is SlowRequestMs as a duration.
func (c Config) SlowRequestThreshold() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}

func decodeCSRFKey(value string) ([]byte, error) {
	key, err := hex.DecodeString(value)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidCSRFKey
	}
	return key, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return b, nil
}
