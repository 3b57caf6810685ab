// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/session"
	"github.com/helpdeskhq/helpdesk/internal/store"
	"github.com/helpdeskhq/helpdesk/pkg/errutil"
)

// memoryConfig serves on ephemeral ports with in-process stores.
func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Log.Level = "error"
	cfg.Accounts.Store = config.StoreMemory
	cfg.Session.Store = config.StoreMemory
	cfg.Session.Secret = strings.Repeat("s", session.MinSecretBytes)
	cfg.Auth.Argon2 = config.Argon2Config{Time: 1, MemoryKiB: 1024, Threads: 1}
	return cfg
}

type runningServe struct {
	webAddr     string
	metricsAddr string
	cancel      context.CancelFunc
	done        chan error
}

// stop cancels serve and returns its result.
func (r *runningServe) stop(t *testing.T) error {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
		return nil
	}
}

func startServe(t *testing.T, cfg config.Config, deps *Deps) *runningServe {
	t.Helper()

	if deps == nil {
		deps = &Deps{}
	}
	ready := make(chan [2]string, 1)
	deps.OnReady = func(webAddr, metricsAddr string) {
		ready <- [2]string{webAddr, metricsAddr}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &runningServe{cancel: cancel, done: make(chan error, 1)}

	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	go func() { r.done <- runServe(ctx, &cfg, cmd, deps) }()

	select {
	case addrs := <-ready:
		r.webAddr, r.metricsAddr = addrs[0], addrs[1]
	case err := <-r.done:
		cancel()
		t.Fatalf("serve exited before ready: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("serve did not become ready")
	}
	return r
}

func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestRunServe_MemoryStores(t *testing.T) {
	isolateConfig(t)
	r := startServe(t, memoryConfig(), nil)

	client := noRedirectClient()
	resp, err := client.Get("http://" + r.webAddr + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get("http://" + r.metricsAddr + "/healthz/readiness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, r.stop(t))
}

func TestRunServe_MetricsDisabled(t *testing.T) {
	isolateConfig(t)
	cfg := memoryConfig()
	cfg.Metrics.Addr = ""

	r := startServe(t, cfg, nil)
	assert.Empty(t, r.metricsAddr)
	require.NoError(t, r.stop(t))
}

func TestRunServe_RedisSessionStore(t *testing.T) {
	isolateConfig(t)
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.Metrics.Addr = ""
	cfg.Session.Store = config.StoreRedis
	cfg.Session.Redis.Addr = mr.Addr()

	r := startServe(t, cfg, nil)
	defer func() { require.NoError(t, r.stop(t)) }()

	client := noRedirectClient()
	form := url.Values{"username": {"alice"}, "password": {"correcthorse"}}

	resp, err := client.PostForm("http://"+r.webAddr+"/register", form)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = client.PostForm("http://"+r.webAddr+"/login", form)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], session.DefaultRedisPrefix))
}

func TestRunServe_RedisUnreachable(t *testing.T) {
	isolateConfig(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := memoryConfig()
	cfg.Metrics.Addr = ""
	cfg.Session.Store = config.StoreRedis
	cfg.Session.Redis.Addr = addr

	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)
	err := runServe(context.Background(), &cfg, cmd, nil)
	require.Error(t, err)
}

func TestRunServe_InvalidConfig(t *testing.T) {
	isolateConfig(t)
	cfg := memoryConfig()
	cfg.Session.Secret = "short"

	err := runServe(context.Background(), &cfg, &cobra.Command{}, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "key", "session.secret")
}

func TestRunServe_ConnectFailure(t *testing.T) {
	isolateConfig(t)
	cfg := memoryConfig()
	cfg.Accounts.Store = config.StorePostgres
	cfg.Database.URL = "postgres://helpdesk@localhost/helpdesk"

	deps := &Deps{
		Connect: func(context.Context, string, store.ConnectOptions) (Pool, error) {
			return nil, oops.Code("DB_CONNECT_FAILED").Errorf("connection refused")
		},
	}
	err := runServe(context.Background(), &cfg, &cobra.Command{}, deps)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
}

func TestRunServe_AutoMigrate(t *testing.T) {
	isolateConfig(t)
	cfg := memoryConfig()
	cfg.Accounts.Store = config.StorePostgres
	cfg.Session.Store = config.StorePostgres
	cfg.Database.URL = "postgres://helpdesk@localhost/helpdesk"
	cfg.Database.AutoMigrate = true

	pool := &fakePool{}
	migrator := &fakeMigrator{}
	var gotURL string
	deps := &Deps{
		Connect: func(_ context.Context, url string, _ store.ConnectOptions) (Pool, error) {
			gotURL = url
			return pool, nil
		},
		NewMigrator: func(string) (Migrator, error) { return migrator, nil },
	}

	r := startServe(t, cfg, deps)

	resp, err := noRedirectClient().Get("http://" + r.metricsAddr + "/healthz/readiness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, r.stop(t))

	assert.Equal(t, cfg.Database.URL, gotURL)
	assert.Equal(t, 1, migrator.up)
	assert.True(t, migrator.closed)
	assert.True(t, pool.closed)
}

func TestRunServe_AutoMigrateFailure(t *testing.T) {
	isolateConfig(t)
	cfg := memoryConfig()
	cfg.Accounts.Store = config.StorePostgres
	cfg.Database.URL = "postgres://helpdesk@localhost/helpdesk"
	cfg.Database.AutoMigrate = true

	pool := &fakePool{}
	migrator := &fakeMigrator{upErr: errors.New("dirty database")}
	deps := &Deps{
		Connect:     func(context.Context, string, store.ConnectOptions) (Pool, error) { return pool, nil },
		NewMigrator: func(string) (Migrator, error) { return migrator, nil },
	}

	err := runServe(context.Background(), &cfg, &cobra.Command{}, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dirty database")
	assert.True(t, migrator.closed)
	assert.True(t, pool.closed)
}

func TestRunServe_SkipsMigrationWhenDisabled(t *testing.T) {
	isolateConfig(t)
	cfg := memoryConfig()
	cfg.Accounts.Store = config.StorePostgres
	cfg.Database.URL = "postgres://helpdesk@localhost/helpdesk"
	cfg.Database.AutoMigrate = false

	deps := &Deps{
		Connect: func(context.Context, string, store.ConnectOptions) (Pool, error) { return &fakePool{}, nil },
		NewMigrator: func(string) (Migrator, error) {
			t.Error("migrator should not be created")
			return nil, errors.New("unexpected")
		},
	}
	r := startServe(t, cfg, deps)
	require.NoError(t, r.stop(t))
}

func TestBuildHasher(t *testing.T) {
	ctx := context.Background()
	fast := config.Argon2Config{Time: 1, MemoryKiB: 1024, Threads: 1}

	t.Run("argon2id primary verifies bcrypt", func(t *testing.T) {
		hasher := buildHasher(config.AuthConfig{Hasher: config.HasherArgon2id, BcryptCost: 4, Argon2: fast})
		hash, err := hasher.Hash(ctx, "correcthorse")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

		legacy, err := auth.NewBcryptHasher(4).Hash(ctx, "correcthorse")
		require.NoError(t, err)
		ok, err := hasher.Verify(ctx, "correcthorse", legacy)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("bcrypt primary", func(t *testing.T) {
		hasher := buildHasher(config.AuthConfig{Hasher: config.HasherBcrypt, BcryptCost: 4, Argon2: fast})
		hash, err := hasher.Hash(ctx, "correcthorse")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2"))
	})

	t.Run("limits concurrency when configured", func(t *testing.T) {
		hasher := buildHasher(config.AuthConfig{Hasher: config.HasherArgon2id, Argon2: fast, MaxConcurrentHashes: 2})
		assert.IsType(t, &auth.LimitedHasher{}, hasher)

		hasher = buildHasher(config.AuthConfig{Hasher: config.HasherArgon2id, Argon2: fast})
		assert.IsType(t, &auth.CompositeHasher{}, hasher)
	})
}
