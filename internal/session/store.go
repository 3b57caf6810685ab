// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"context"
	"errors"
	"time"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// ErrNotFound is returned by Store.Load when no live record exists for a
// token hash. Expired records are reported the same way.
var ErrNotFound = errors.New("session not found")

// Record is the server-side state of one session.
type Record struct {
	TokenHash string               `json:"-"`
	Identity  auth.SessionIdentity `json:"identity"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// ExpiredAt reports whether the record is expired at t.
func (r *Record) ExpiredAt(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}

// Store persists session records.
type Store interface {
	// Load returns the live record for tokenHash, or ErrNotFound.
	Load(ctx context.Context, tokenHash string) (*Record, error)

	// Save writes rec in a single operation. Either the whole record is
	// stored or nothing is.
	Save(ctx context.Context, rec *Record) error

	// Delete removes the record for tokenHash. Deleting a missing record
	// succeeds.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes expired records and returns how many were
	// removed. Stores that expire records natively return 0.
	DeleteExpired(ctx context.Context) (int64, error)
}
