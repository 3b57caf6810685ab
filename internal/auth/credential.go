// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/oops"
)

// Credentials is a proof of identity presented at login.
type Credentials interface {
	// Method names the credential type, e.g. "password".
	Method() string
}

// PasswordCredentials is a username + plaintext password pair.
type PasswordCredentials struct {
	Username string
	Password string
}

// Method implements Credentials.
func (PasswordCredentials) Method() string { return "password" }

// FailureReason says why a credential was rejected. It is for logs and
// tests only and must not reach clients.
type FailureReason int

// Failure reasons.
const (
	ReasonNone FailureReason = iota
	ReasonAccountNotFound
	ReasonPasswordMismatch
)

// String returns the log label for the reason.
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonAccountNotFound:
		return "account_not_found"
	case ReasonPasswordMismatch:
		return "password_mismatch"
	default:
		return "unknown"
	}
}

// Outcome is the accept/reject decision for one credential.
// Exactly one of Account or Reason is set.
type Outcome struct {
	Account *Account
	Reason  FailureReason
}

// Succeeded reports whether the credential was accepted.
func (o Outcome) Succeeded() bool {
	return o.Account != nil
}

// Success builds an accepting Outcome.
func Success(account *Account) Outcome {
	return Outcome{Account: account}
}

// Failure builds a rejecting Outcome.
func Failure(reason FailureReason) Outcome {
	return Outcome{Reason: reason}
}

// CredentialVerifier decides whether a credential identifies an account.
// A rejection is reported through the Outcome; the error return is reserved
// for infrastructure failures (store unreachable, hashing failed).
type CredentialVerifier interface {
	Verify(ctx context.Context, creds Credentials) (Outcome, error)
}

// PasswordVerifier is the username+password CredentialVerifier.
type PasswordVerifier struct {
	accounts AccountRepository
	hasher   PasswordHasher

	dummyMu   sync.Mutex
	dummyHash string
}

// NewPasswordVerifier creates a PasswordVerifier.
func NewPasswordVerifier(accounts AccountRepository, hasher PasswordHasher) (*PasswordVerifier, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &PasswordVerifier{accounts: accounts, hasher: hasher}, nil
}

// dummyPassword is hashed once to produce the hash verified against when
// the username is unknown.
const dummyPassword = "helpdesk-timing-equalizer"

// Verify looks the account up and checks the password against its stored
// hash. When the account does not exist the password is still verified
// against a hash produced by the same hasher, so both failure branches cost
// one full verification.
func (v *PasswordVerifier) Verify(ctx context.Context, creds Credentials) (Outcome, error) {
	pc, ok := creds.(PasswordCredentials)
	if !ok {
		return Outcome{}, oops.Code(CodeUnsupportedCredentials).
			With("method", creds.Method()).
			Wrap(ErrUnsupportedCredentials)
	}

	account, err := v.accounts.GetByUsername(ctx, pc.Username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Outcome{}, oops.Code(CodeLookupFailed).
				With("operation", "get account by username").
				Wrap(err)
		}
		dummy, dummyErr := v.dummy(ctx)
		if dummyErr != nil {
			return Outcome{}, dummyErr
		}
		// Result is discarded; the call only equalizes latency.
		_, _ = v.hasher.Verify(ctx, pc.Password, dummy) //nolint:errcheck // timing only
		return Failure(ReasonAccountNotFound), nil
	}

	match, err := v.hasher.Verify(ctx, pc.Password, account.PasswordHash)
	if err != nil {
		return Outcome{}, oops.Code(CodeHashFailed).
			With("operation", "verify password").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	if !match {
		return Failure(ReasonPasswordMismatch), nil
	}
	return Success(account), nil
}

// Warm computes the equalizer hash ahead of the first unknown-username
// login, so that login costs one verification like every other rejection.
func (v *PasswordVerifier) Warm(ctx context.Context) error {
	_, err := v.dummy(ctx)
	return err
}

// dummy returns the equalizer hash, computing it on first use. A failed
// computation is not cached.
func (v *PasswordVerifier) dummy(ctx context.Context) (string, error) {
	v.dummyMu.Lock()
	defer v.dummyMu.Unlock()

	if v.dummyHash != "" {
		return v.dummyHash, nil
	}
	hash, err := v.hasher.Hash(ctx, dummyPassword)
	if err != nil {
		return "", oops.Code(CodeHashFailed).
			With("operation", "hash dummy password").
			Wrap(err)
	}
	v.dummyHash = hash
	return hash, nil
}

var _ CredentialVerifier = (*PasswordVerifier)(nil)
