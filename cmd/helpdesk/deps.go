// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/store"
)

// Pool is the subset of *pgxpool.Pool the commands use.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Status() (store.Status, error)
	Close() error
}

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// Connect opens the PostgreSQL pool.
	// Default: store.Connect
	Connect func(ctx context.Context, url string, opts store.ConnectOptions) (Pool, error)

	// NewMigrator creates a schema migrator.
	// Default: store.NewMigrator
	NewMigrator func(url string) (Migrator, error)

	// NewRedisClient creates the redis client for the redis session store.
	// Default: redis.NewUniversalClient
	NewRedisClient func(cfg config.RedisConfig) redis.UniversalClient

	// ReadPassword prompts for a password on the terminal.
	// Default: term.ReadPassword on stdin
	ReadPassword func(prompt string) (string, error)

	// IsTerminal reports whether stdin is interactive.
	// Default: term.IsTerminal on stdin
	IsTerminal func() bool

	// OnReady is called once serve is accepting requests.
	OnReady func(webAddr, metricsAddr string)
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.Connect == nil {
		out.Connect = func(ctx context.Context, url string, opts store.ConnectOptions) (Pool, error) {
			return store.Connect(ctx, url, opts)
		}
	}
	if out.NewMigrator == nil {
		out.NewMigrator = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.NewRedisClient == nil {
		out.NewRedisClient = func(cfg config.RedisConfig) redis.UniversalClient {
			return redis.NewUniversalClient(&redis.UniversalOptions{
				Addrs:    []string{cfg.Addr},
				Password: cfg.Password,
				DB:       cfg.DB,
			})
		}
	}
	if out.IsTerminal == nil {
		out.IsTerminal = func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
		}
	}
	if out.ReadPassword == nil {
		out.ReadPassword = func(prompt string) (string, error) {
			if _, err := os.Stderr.WriteString(prompt); err != nil {
				return "", err
			}
			pw, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
			_, _ = os.Stderr.WriteString("\n")
			return string(pw), err
		}
	}
	if out.OnReady == nil {
		out.OnReady = func(string, string) {}
	}
	return &out
}
