// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package main

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helpdeskhq/helpdesk/internal/store"
)

// isolateConfig keeps the developer's own config and environment out of
// command tests.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "")
	configFile = ""
}

// fakePool satisfies Pool without a database.
type fakePool struct {
	closed bool
}

func (p *fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("fake pool: exec not supported")
}

func (p *fakePool) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (p *fakePool) Ping(context.Context) error { return nil }

func (p *fakePool) Close() { p.closed = true }

type errRow struct{}

func (errRow) Scan(...any) error { return pgx.ErrNoRows }

// fakeMigrator records calls instead of touching a database.
type fakeMigrator struct {
	upErr    error
	downErr  error
	status   store.Status
	up, down int
	closed   bool
}

func (m *fakeMigrator) Up() error {
	m.up++
	return m.upErr
}

func (m *fakeMigrator) Down() error {
	m.down++
	return m.downErr
}

func (m *fakeMigrator) Status() (store.Status, error) { return m.status, nil }

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}
