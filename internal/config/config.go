// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

// Package config loads helpdesk settings from defaults, an optional YAML
// file, HELPDESK_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"time"

	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/logging"
	"github.com/helpdeskhq/helpdesk/internal/session"
)

// Store and hasher choices.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	HasherArgon2id = "argon2id"
	HasherBcrypt   = "bcrypt"
)

// Config is the full helpdesk configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Accounts AccountsConfig `koanf:"accounts"`
	Auth     AuthConfig     `koanf:"auth"`
	Session  SessionConfig  `koanf:"session"`
}

// HTTPConfig configures the web listener.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the observability listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string `koanf:"url"`
	MaxConns        int32  `koanf:"max_conns"`
	ConnectAttempts uint64 `koanf:"connect_attempts"`
	AutoMigrate     bool   `koanf:"auto_migrate"`
}

// AccountsConfig selects the account store.
type AccountsConfig struct {
	Store string `koanf:"store"`
}

// AuthConfig configures password hashing.
type AuthConfig struct {
	Hasher              string       `koanf:"hasher"`
	BcryptCost          int          `koanf:"bcrypt_cost"`
	Argon2              Argon2Config `koanf:"argon2"`
	MaxConcurrentHashes int          `koanf:"max_concurrent_hashes"`
}

// Argon2Config tunes argon2id. Zero values use the library defaults.
type Argon2Config struct {
	Time      uint32 `koanf:"time"`
	MemoryKiB uint32 `koanf:"memory_kib"`
	Threads   uint8  `koanf:"threads"`
}

// SessionConfig configures the session transport.
type SessionConfig struct {
	Store         string        `koanf:"store"`
	Secret        string        `koanf:"secret"`
	CookieName    string        `koanf:"cookie_name"`
	TTL           time.Duration `koanf:"ttl"`
	Secure        bool          `koanf:"secure"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	Redis         RedisConfig   `koanf:"redis"`
}

// RedisConfig configures the redis session store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json", Level: "info"},
		Database: DatabaseConfig{
			MaxConns:        10,
			ConnectAttempts: 10,
			AutoMigrate:     true,
		},
		Accounts: AccountsConfig{Store: StorePostgres},
		Auth: AuthConfig{
			Hasher:              HasherArgon2id,
			BcryptCost:          10,
			MaxConcurrentHashes: 8,
		},
		Session: SessionConfig{
			Store:         StorePostgres,
			CookieName:    session.DefaultCookieName,
			TTL:           session.DefaultTTL,
			SweepInterval: session.DefaultSweepInterval,
			Redis:         RedisConfig{Prefix: session.DefaultRedisPrefix},
		},
	}
}

func invalid(key string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// Validate checks the configuration needed by `serve`.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	switch c.Accounts.Store {
	case StoreMemory, StorePostgres:
	default:
		return invalid("accounts.store", "accounts.store must be 'postgres' or 'memory', got %q", c.Accounts.Store)
	}
	switch c.Auth.Hasher {
	case HasherArgon2id, HasherBcrypt:
	default:
		return invalid("auth.hasher", "auth.hasher must be 'argon2id' or 'bcrypt', got %q", c.Auth.Hasher)
	}
	if c.Auth.Argon2.Time > auth.MaxArgon2Time {
		return invalid("auth.argon2.time", "auth.argon2.time must be at most %d", auth.MaxArgon2Time)
	}
	if c.Auth.Argon2.MemoryKiB > auth.MaxArgon2MemoryKiB {
		return invalid("auth.argon2.memory_kib", "auth.argon2.memory_kib must be at most %d", auth.MaxArgon2MemoryKiB)
	}
	if c.Auth.MaxConcurrentHashes < 0 {
		return invalid("auth.max_concurrent_hashes", "auth.max_concurrent_hashes must not be negative")
	}

	switch c.Session.Store {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		// sessions.account_id references the accounts table.
		if c.Accounts.Store != StorePostgres {
			return invalid("session.store", "session.store 'postgres' requires accounts.store 'postgres'")
		}
	default:
		return invalid("session.store", "session.store must be 'memory', 'redis' or 'postgres', got %q", c.Session.Store)
	}
	if c.Session.Store == StoreRedis && c.Session.Redis.Addr == "" {
		return invalid("session.redis.addr", "session.redis.addr is required for the redis session store")
	}
	if len(c.Session.Secret) < session.MinSecretBytes {
		return invalid("session.secret", "session.secret must be at least %d bytes", session.MinSecretBytes)
	}
	if c.Session.TTL <= 0 {
		return invalid("session.ttl", "session.ttl must be positive")
	}

	if c.NeedsDatabase() {
		return c.RequireDatabase()
	}
	return nil
}

// NeedsDatabase reports whether any configured store lives in PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Accounts.Store == StorePostgres || c.Session.Store == StorePostgres
}

// RequireDatabase fails when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database.url (or DATABASE_URL) is required")
	}
	return nil
}
