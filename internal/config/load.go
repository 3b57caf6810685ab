// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/helpdeskhq/helpdesk/internal/xdg"
)

// EnvPrefix prefixes every helpdesk environment variable. A double
// underscore separates nesting levels: HELPDESK_SESSION__REDIS__ADDR sets
// session.redis.addr.
const EnvPrefix = "HELPDESK_"

// databaseURLEnv is read when no other layer sets database.url.
const databaseURLEnv = "DATABASE_URL"

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"http-addr":      "http.addr",
	"metrics-addr":   "metrics.addr",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"database-url":   "database.url",
	"auto-migrate":   "database.auto_migrate",
	"accounts-store": "accounts.store",
	"session-store":  "session.store",
	"auth-hasher":    "auth.hasher",
}

// BindFlags registers the flags that override config keys.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "web listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	fs.Bool("auto-migrate", d.Database.AutoMigrate, "apply pending migrations at start-up")
	fs.String("accounts-store", d.Accounts.Store, "account store (postgres or memory)")
	fs.String("session-store", d.Session.Store, "session store (postgres, redis or memory)")
	fs.String("auth-hasher", d.Auth.Hasher, "password hash algorithm for new accounts (argon2id or bcrypt)")
}

// BindDatabaseFlags registers only --database-url, for commands that touch
// the database and nothing else.
func BindDatabaseFlags(fs *pflag.FlagSet) {
	fs.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
}

// Load builds the configuration. configFile may be empty, in which case
// $XDG_CONFIG_HOME/helpdesk/config.yaml is read when it exists. flags may
// be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaultValues() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if configFile == "" {
		found, err := xdg.DefaultConfigFile()
		if err != nil {
			return nil, err
		}
		configFile = found
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", configFile).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}

	if k.String("database.url") == "" {
		if url := os.Getenv(databaseURLEnv); url != "" {
			if err := k.Set("database.url", url); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", "database.url").Wrap(err)
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

// envKey turns HELPDESK_SESSION__REDIS__ADDR into session.redis.addr.
func envKey(name, value string) (string, any) {
	key := strings.TrimPrefix(name, EnvPrefix)
	if key == "" {
		return "", nil
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", "."), value
}

// flagKey maps a bound flag to its config key. Unknown flags are skipped.
func flagKey(f *pflag.Flag) (string, any) {
	key, ok := flagKeys[f.Name]
	if !ok {
		return "", nil
	}
	return key, f.Value.String()
}

func defaultValues() map[string]any {
	d := Default()
	return map[string]any{
		"http.addr":                  d.HTTP.Addr,
		"http.read_header_timeout":   d.HTTP.ReadHeaderTimeout,
		"http.shutdown_timeout":      d.HTTP.ShutdownTimeout,
		"metrics.addr":               d.Metrics.Addr,
		"log.format":                 d.Log.Format,
		"log.level":                  d.Log.Level,
		"database.url":               d.Database.URL,
		"database.max_conns":         d.Database.MaxConns,
		"database.connect_attempts":  d.Database.ConnectAttempts,
		"database.auto_migrate":      d.Database.AutoMigrate,
		"accounts.store":             d.Accounts.Store,
		"auth.hasher":                d.Auth.Hasher,
		"auth.bcrypt_cost":           d.Auth.BcryptCost,
		"auth.argon2.time":           d.Auth.Argon2.Time,
		"auth.argon2.memory_kib":     d.Auth.Argon2.MemoryKiB,
		"auth.argon2.threads":        d.Auth.Argon2.Threads,
		"auth.max_concurrent_hashes": d.Auth.MaxConcurrentHashes,
		"session.store":              d.Session.Store,
		"session.secret":             d.Session.Secret,
		"session.cookie_name":        d.Session.CookieName,
		"session.ttl":                d.Session.TTL,
		"session.secure":             d.Session.Secure,
		"session.sweep_interval":     d.Session.SweepInterval,
		"session.redis.addr":         d.Session.Redis.Addr,
		"session.redis.password":     d.Session.Redis.Password,
		"session.redis.db":           d.Session.Redis.DB,
		"session.redis.prefix":       d.Session.Redis.Prefix,
	}
}
