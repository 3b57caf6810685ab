// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionIdentity is the payload bound to a session: the account ID and
// nothing else.
type SessionIdentity struct {
	AccountID ulid.ULID `json:"account_id"`
}

// IsZero reports whether the identity carries no account.
func (s SessionIdentity) IsZero() bool {
	return s.AccountID.Compare(ulid.ULID{}) == 0
}

// SessionHandle is the explicit per-request session a transport hands to
// the Gateway.
type SessionHandle interface {
	// Identity returns the attached payload. ok is false when the session is
	// anonymous. A non-nil error means the session store could not be read.
	Identity(ctx context.Context) (identity SessionIdentity, ok bool, err error)

	// Establish binds identity to the session. Either the whole payload is
	// persisted or nothing is.
	Establish(ctx context.Context, identity SessionIdentity) error

	// Clear removes any payload. Clearing an anonymous session succeeds.
	Clear(ctx context.Context) error
}

// IdentityManager converts accounts to session payloads and back.
type IdentityManager struct {
	accounts AccountRepository
}

// NewIdentityManager creates an IdentityManager.
func NewIdentityManager(accounts AccountRepository) (*IdentityManager, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	return &IdentityManager{accounts: accounts}, nil
}

// Serialize projects the account to its ID.
func (m *IdentityManager) Serialize(account *Account) SessionIdentity {
	return SessionIdentity{AccountID: account.ID}
}

// Deserialize re-reads the account from the store. It never serves a cached
// copy, so a deleted account stops resolving on the next request. Returns
// an error wrapping ErrNotFound when the account no longer exists.
func (m *IdentityManager) Deserialize(ctx context.Context, identity SessionIdentity) (*Account, error) {
	if identity.IsZero() {
		return nil, oops.Code("SESSION_IDENTITY_EMPTY").Wrap(ErrNotFound)
	}

	account, err := m.accounts.GetByID(ctx, identity.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_IDENTITY_STALE").
				With("account_id", identity.AccountID.String()).
				Wrap(err)
		}
		return nil, oops.Code(CodeLookupFailed).
			With("operation", "get account by id").
			With("account_id", identity.AccountID.String()).
			Wrap(err)
	}
	return account, nil
}
