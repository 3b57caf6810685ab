// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// State is the authentication state of a request.
type State int

// Request states.
const (
	Anonymous State = iota
	Authenticated
)

// String returns the log label for the state.
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Resolution is the result of resolving a request's session.
// Account is set only when State is Authenticated.
type Resolution struct {
	State   State
	Account *Account
}

// Recorder receives outcome counts from the Gateway.
type Recorder interface {
	LoginAttempt(outcome string)
	Registration(outcome string)
	SessionResolution(state string)
}

// Outcome labels passed to Recorder.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeDuplicateUsername  = "duplicate_username"
	OutcomeInvalid            = "invalid"
	OutcomeError              = "error"

	ResolutionAnonymous     = "anonymous"
	ResolutionAuthenticated = "authenticated"
	ResolutionStale         = "stale"
	ResolutionError         = "error"
)

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string)      {}
func (nopRecorder) Registration(string)      {}
func (nopRecorder) SessionResolution(string) {}

// Gateway is the request-facing authentication API: register, login,
// resolve and logout.
type Gateway struct {
	accounts   AccountRepository
	hasher     PasswordHasher
	verifier   CredentialVerifier
	identities *IdentityManager
	recorder   Recorder
	logger     *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) GatewayOption {
	return func(g *Gateway) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithVerifier replaces the default PasswordVerifier.
func WithVerifier(v CredentialVerifier) GatewayOption {
	return func(g *Gateway) {
		if v != nil {
			g.verifier = v
		}
	}
}

// NewGateway creates a Gateway over the account store and hasher.
func NewGateway(accounts AccountRepository, hasher PasswordHasher, opts ...GatewayOption) (*Gateway, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}

	identities, err := NewIdentityManager(accounts)
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		accounts:   accounts,
		hasher:     hasher,
		identities: identities,
		recorder:   nopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.verifier == nil {
		v, err := NewPasswordVerifier(accounts, hasher)
		if err != nil {
			return nil, err
		}
		g.verifier = v
	}
	return g, nil
}

// Identities returns the gateway's IdentityManager.
func (g *Gateway) Identities() *IdentityManager {
	return g.identities
}

// Warm prepares the credential verifier before traffic arrives. Verifiers
// without a warm-up step are left as they are.
func (g *Gateway) Warm(ctx context.Context) error {
	w, ok := g.verifier.(interface{ Warm(context.Context) error })
	if !ok {
		return nil
	}
	if err := w.Warm(ctx); err != nil {
		return oops.Code(CodeHashFailed).
			With("operation", "warm verifier").
			Wrap(errors.Join(ErrUnavailable, err))
	}
	return nil
}

// Register creates an account. It does not log the caller in.
//
// Errors:
//   - CodeInvalidUsername / CodeInvalidPassword when input fails validation
//   - CodeDuplicateUsername (wrapping ErrDuplicateUsername) when the name is taken
//   - CodeHashFailed / CodeRegisterFailed (wrapping ErrUnavailable) on infrastructure failure
func (g *Gateway) Register(ctx context.Context, username, password string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		g.recorder.Registration(OutcomeInvalid)
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		g.recorder.Registration(OutcomeInvalid)
		return nil, err
	}

	hash, err := g.hasher.Hash(ctx, password)
	if err != nil {
		g.recorder.Registration(OutcomeError)
		g.logger.ErrorContext(ctx, "password hashing failed",
			"event", "register_failed",
			"operation", "hash_password",
			"error", err)
		return nil, oops.Code(CodeHashFailed).
			With("operation", "hash password").
			Wrap(errors.Join(ErrUnavailable, ErrHashingFailure, err))
	}

	account, err := g.accounts.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			g.recorder.Registration(OutcomeDuplicateUsername)
			g.logger.InfoContext(ctx, "registration rejected",
				"event", "register_failed",
				"reason", "duplicate_username",
				"username", username)
			return nil, oops.Code(CodeDuplicateUsername).
				With("username", username).
				Wrap(ErrDuplicateUsername)
		}
		g.recorder.Registration(OutcomeError)
		g.logger.ErrorContext(ctx, "account creation failed",
			"event", "register_failed",
			"operation", "create_account",
			"error", err)
		return nil, oops.Code(CodeRegisterFailed).
			With("operation", "create account").
			Wrap(errors.Join(ErrUnavailable, err))
	}

	g.recorder.Registration(OutcomeSuccess)
	g.logger.InfoContext(ctx, "account registered",
		"event", "account_registered",
		"account", account)
	return account, nil
}

// Login verifies the credentials and binds the account to sess.
//
// Every credential rejection returns the same error: CodeInvalidCredentials
// wrapping ErrInvalidCredentials, with no context attached. The internal
// reason is logged only. Infrastructure failures wrap ErrUnavailable.
func (g *Gateway) Login(ctx context.Context, sess SessionHandle, username, password string) (SessionIdentity, error) {
	outcome, err := g.verifier.Verify(ctx, PasswordCredentials{Username: username, Password: password})
	if err != nil {
		g.recorder.LoginAttempt(OutcomeError)
		g.logger.ErrorContext(ctx, "credential verification failed",
			"event", "login_failed",
			"operation", "verify_credentials",
			"error", err)
		return SessionIdentity{}, oops.Code(CodeLookupFailed).
			With("operation", "verify credentials").
			Wrap(errors.Join(ErrUnavailable, err))
	}

	if !outcome.Succeeded() {
		g.recorder.LoginAttempt(OutcomeInvalidCredentials)
		g.logger.InfoContext(ctx, "login rejected",
			"event", "login_failed",
			"username", username,
			"reason", outcome.Reason.String())
		return SessionIdentity{}, invalidCredentials()
	}

	identity := g.identities.Serialize(outcome.Account)
	if err := sess.Establish(ctx, identity); err != nil {
		g.recorder.LoginAttempt(OutcomeError)
		g.logger.ErrorContext(ctx, "session establish failed",
			"event", "login_failed",
			"operation", "establish_session",
			"account_id", identity.AccountID.String(),
			"error", err)
		return SessionIdentity{}, oops.Code(CodeSessionEstablishFailed).
			With("operation", "establish session").
			Wrap(errors.Join(ErrUnavailable, err))
	}

	g.recorder.LoginAttempt(OutcomeSuccess)
	g.logger.InfoContext(ctx, "login succeeded",
		"event", "login_succeeded",
		"account", outcome.Account)
	return identity, nil
}

// ResolveSession reports whether the request behind sess is authenticated.
//
// It never fails: an unreadable session store or account store degrades to
// Anonymous. A session naming an account that no longer exists is cleared.
func (g *Gateway) ResolveSession(ctx context.Context, sess SessionHandle) Resolution {
	identity, ok, err := sess.Identity(ctx)
	if err != nil {
		g.recorder.SessionResolution(ResolutionError)
		g.logger.WarnContext(ctx, "session store unavailable, treating request as anonymous",
			"event", "session_resolve_failed",
			"operation", "load_session",
			"error", err)
		return Resolution{State: Anonymous}
	}
	if !ok {
		g.recorder.SessionResolution(ResolutionAnonymous)
		return Resolution{State: Anonymous}
	}

	account, err := g.identities.Deserialize(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			g.recorder.SessionResolution(ResolutionStale)
			g.logger.InfoContext(ctx, "clearing stale session",
				"event", "stale_session_cleared",
				"account_id", identity.AccountID.String())
			if clearErr := sess.Clear(ctx); clearErr != nil {
				g.logger.WarnContext(ctx, "best-effort stale session clear failed",
					"event", "stale_session_cleared",
					"operation", "clear_session",
					"error", clearErr)
			}
			return Resolution{State: Anonymous}
		}
		g.recorder.SessionResolution(ResolutionError)
		g.logger.WarnContext(ctx, "account lookup failed, treating request as anonymous",
			"event", "session_resolve_failed",
			"operation", "deserialize_identity",
			"account_id", identity.AccountID.String(),
			"error", err)
		return Resolution{State: Anonymous}
	}

	g.recorder.SessionResolution(ResolutionAuthenticated)
	return Resolution{State: Authenticated, Account: account}
}

// Logout clears sess. Logging out an anonymous session succeeds.
func (g *Gateway) Logout(ctx context.Context, sess SessionHandle) error {
	if err := sess.Clear(ctx); err != nil {
		g.logger.WarnContext(ctx, "session clear failed",
			"event", "logout_failed",
			"operation", "clear_session",
			"error", err)
		return oops.Code(CodeLogoutFailed).
			With("operation", "clear session").
			Wrap(errors.Join(ErrUnavailable, err))
	}
	return nil
}

// invalidCredentials is the one error every rejected login returns.
func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}
