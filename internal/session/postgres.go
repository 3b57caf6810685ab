// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// poolIface is the subset of *pgxpool.Pool used by PostgresStore.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps records in the sessions table.
type PostgresStore struct {
	pool  poolIface
	clock func() time.Time
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool poolIface) *PostgresStore {
	return &PostgresStore{pool: pool, clock: time.Now}
}

// Load returns the live record for tokenHash.
func (s *PostgresStore) Load(ctx context.Context, tokenHash string) (*Record, error) {
	var (
		accountIDStr string
		createdAt    time.Time
		expiresAt    time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT account_id, created_at, expires_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > $2
	`, tokenHash, s.clock()).Scan(&accountIDStr, &createdAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOAD_FAILED").
			With("operation", "select session").
			Wrap(err)
	}

	accountID, err := ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_CORRUPT").
			With("operation", "parse account id").
			With("account_id", accountIDStr).
			Wrap(err)
	}

	return &Record{
		TokenHash: tokenHash,
		Identity:  auth.SessionIdentity{AccountID: accountID},
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Save inserts rec as one row.
func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	if rec.TokenHash == "" {
		return oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token_hash, account_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`,
		rec.TokenHash,
		rec.Identity.AccountID.String(),
		rec.CreatedAt,
		rec.ExpiresAt,
	)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").
			With("operation", "insert session").
			With("account_id", rec.Identity.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// Delete removes the record for tokenHash. No error if it was already gone.
func (s *PostgresStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.clock())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

var _ Store = (*PostgresStore)(nil)
