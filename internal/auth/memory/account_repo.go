// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

// Package memory provides an in-process auth.AccountRepository for
// development and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// AccountRepository keeps accounts in maps guarded by a RWMutex.
// Contents are lost when the process exits.
type AccountRepository struct {
	mu         sync.RWMutex
	byID       map[ulid.ULID]*auth.Account
	byUsername map[string]ulid.ULID // keyed by lower-cased username
}

// NewAccountRepository creates an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:       make(map[ulid.ULID]*auth.Account),
		byUsername: make(map[string]ulid.ULID),
	}
}

// Create stores a new account. The uniqueness check and insert happen under
// one lock, so concurrent registrations of the same name see exactly one
// success.
func (r *AccountRepository) Create(ctx context.Context, username, passwordHash string) (*auth.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").Wrap(err)
	}

	account, err := auth.NewAccount(username, passwordHash)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[key]; taken {
		return nil, oops.Code("ACCOUNT_DUPLICATE_USERNAME").
			With("username", username).
			Wrap(auth.ErrDuplicateUsername)
	}
	r.byID[account.ID] = account
	r.byUsername[key] = account.ID
	return clone(account), nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return clone(account), nil
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	return clone(r.byID[id]), nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	delete(r.byUsername, strings.ToLower(account.Username))
	delete(r.byID, id)
	return nil
}

// Len returns the number of stored accounts.
func (r *AccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func clone(a *auth.Account) *auth.Account {
	c := *a
	return &c
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
