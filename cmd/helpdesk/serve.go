// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/auth/memory"
	authpg "github.com/helpdeskhq/helpdesk/internal/auth/postgres"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/observability"
	"github.com/helpdeskhq/helpdesk/internal/session"
	"github.com/helpdeskhq/helpdesk/internal/store"
	"github.com/helpdeskhq/helpdesk/internal/web"
)

// NewServeCmd creates the serve subcommand. A nil deps uses the defaults.
func NewServeCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the helpdesk web server. Connects to PostgreSQL when a
postgres store is configured, applies pending migrations when
database.auto_migrate is set, and shuts down gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd, deps)
		},
	}

	config.BindFlags(cmd.Flags())
	return cmd
}

// runServe runs until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	logger.Info("starting helpdesk",
		"http_addr", cfg.HTTP.Addr,
		"accounts_store", cfg.Accounts.Store,
		"session_store", cfg.Session.Store,
		"hasher", cfg.Auth.Hasher)

	var pool Pool
	if cfg.NeedsDatabase() {
		pool, err = deps.Connect(ctx, cfg.Database.URL, store.ConnectOptions{
			MaxConns: cfg.Database.MaxConns,
			Attempts: cfg.Database.ConnectAttempts,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to database")

		if cfg.Database.AutoMigrate {
			if err := migrateUp(deps, cfg.Database.URL); err != nil {
				return err
			}
			logger.Info("database schema up to date")
		}
	}

	var ready atomic.Bool
	metrics, obsServer, err := startObservability(ctx, cfg, logger, ready.Load)
	if err != nil {
		return err
	}
	if obsServer != nil {
		defer stopServer(cfg, logger, "observability", obsServer)
	}

	accounts := buildAccountStore(cfg, pool)
	sessionStore, closeStore, err := buildSessionStore(ctx, cfg, pool, deps)
	if err != nil {
		return err
	}
	defer closeStore()

	if obsServer != nil {
		if pool != nil {
			obsServer.AddCheck("database", pool.Ping)
		}
		if rs, ok := sessionStore.(*session.RedisStore); ok {
			obsServer.AddCheck("redis", rs.Ping)
		}
	}

	if cfg.Session.Store != config.StoreRedis {
		sweeper := session.NewSweeper(sessionStore, cfg.Session.SweepInterval, logger)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	codec, err := session.NewCookieCodec([]byte(cfg.Session.Secret))
	if err != nil {
		return err
	}
	manager, err := session.NewManagerWithLogger(sessionStore, codec, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	}, logger)
	if err != nil {
		return err
	}

	gateway, err := auth.NewGateway(accounts, buildHasher(cfg.Auth),
		auth.WithLogger(logger),
		auth.WithRecorder(metrics))
	if err != nil {
		return err
	}
	if err := gateway.Warm(ctx); err != nil {
		return err
	}

	webServer, err := web.NewServer(gateway, manager, web.Options{
		Logger:            logger,
		Requests:          metrics,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		SecureCookies:     cfg.Session.Secure,
	})
	if err != nil {
		return err
	}
	webErrCh, err := webServer.Start(cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	defer stopServer(cfg, logger, "web", webServer)

	ready.Store(true)
	metricsAddr := ""
	if obsServer != nil {
		metricsAddr = obsServer.Addr()
	}
	deps.OnReady(webServer.Addr(), metricsAddr)
	cmd.Println("Helpdesk listening on " + webServer.Addr())

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-webErrCh:
		if err != nil {
			return oops.Code("WEB_SERVER_FAILED").Wrap(err)
		}
	}
	ready.Store(false)
	return nil
}

func migrateUp(deps *Deps, url string) (err error) {
	m, err := deps.NewMigrator(url)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.Up()
}

// startObservability starts the metrics server when one is configured.
// Metrics are always returned so the gateway has a recorder either way.
func startObservability(ctx context.Context, cfg *config.Config, logger *slog.Logger,
	ready observability.ReadinessChecker,
) (*observability.Metrics, *observability.Server, error) {
	if cfg.Metrics.Addr == "" {
		return observability.NewMetrics(prometheus.NewRegistry()), nil, nil
	}

	server := observability.NewServer(cfg.Metrics.Addr, ready, logger)
	errCh, err := server.Start()
	if err != nil {
		return nil, nil, err
	}
	go func() {
		select {
		case err, ok := <-errCh:
			if ok && err != nil {
				logger.Error("observability server failed", "error", err)
			}
		case <-ctx.Done():
		}
	}()
	return server.Metrics(), server, nil
}

type stoppable interface {
	Stop(ctx context.Context) error
}

func stopServer(cfg *config.Config, logger *slog.Logger, name string, s stoppable) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

func buildAccountStore(cfg *config.Config, pool Pool) auth.AccountRepository {
	if cfg.Accounts.Store == config.StorePostgres {
		return authpg.NewAccountRepository(pool)
	}
	return memory.NewAccountRepository()
}

func buildSessionStore(ctx context.Context, cfg *config.Config, pool Pool, deps *Deps) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case config.StorePostgres:
		return session.NewPostgresStore(pool), func() {}, nil
	case config.StoreRedis:
		client := deps.NewRedisClient(cfg.Session.Redis)
		rs := session.NewRedisStore(client, cfg.Session.Redis.Prefix)
		if err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return rs, func() { _ = client.Close() }, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}

// buildHasher hashes new passwords with the configured algorithm and
// verifies hashes of either kind. MaxConcurrentHashes of 0 leaves hashing
// unbounded.
func buildHasher(cfg config.AuthConfig) auth.PasswordHasher {
	argon := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:      cfg.Argon2.Time,
		MemoryKiB: cfg.Argon2.MemoryKiB,
		Threads:   cfg.Argon2.Threads,
	})
	legacy := auth.NewBcryptHasher(cfg.BcryptCost)

	var hasher auth.SchemeHasher = auth.NewCompositeHasher(argon, legacy)
	if cfg.Hasher == config.HasherBcrypt {
		hasher = auth.NewCompositeHasher(legacy, argon)
	}
	if cfg.MaxConcurrentHashes > 0 {
		hasher = auth.NewLimitedHasher(hasher, cfg.MaxConcurrentHashes)
	}
	return hasher
}
