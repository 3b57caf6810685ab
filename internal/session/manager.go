// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// Cookie defaults.
const (
	DefaultCookieName = "helpdesk_session"
	DefaultTTL        = 24 * time.Hour
)

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func (o Options) withDefaults() Options {
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	return o
}

// Manager binds HTTP requests to stored sessions.
type Manager struct {
	store  Store
	codec  *CookieCodec
	opts   Options
	logger *slog.Logger
	clock  func() time.Time
}

// NewManager creates a Manager.
func NewManager(store Store, codec *CookieCodec, opts Options) (*Manager, error) {
	return NewManagerWithLogger(store, codec, opts, slog.Default())
}

// NewManagerWithLogger creates a Manager with a custom logger.
func NewManagerWithLogger(store Store, codec *CookieCodec, opts Options, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, oops.Errorf("session store is required")
	}
	if codec == nil {
		return nil, oops.Errorf("cookie codec is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Manager{
		store:  store,
		codec:  codec,
		opts:   opts.withDefaults(),
		logger: logger,
		clock:  time.Now,
	}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.opts.CookieName
}

// Load returns the session handle for r. Cookie verification happens here;
// the store is not read until Identity is called. A cookie that fails
// verification is expired and the request starts anonymous.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Handle {
	h := &Handle{m: m, w: w}

	c, err := r.Cookie(m.opts.CookieName)
	if err != nil || c.Value == "" {
		return h
	}

	token, err := m.codec.Decode(c.Value)
	if err != nil {
		m.logger.DebugContext(r.Context(), "discarding invalid session cookie", "error", err)
		m.expireCookie(w)
		return h
	}
	h.tokenHash = HashToken(token)
	return h
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Handle is one request's view of its session. It implements
// auth.SessionHandle and is not shared between requests.
type Handle struct {
	m *Manager
	w http.ResponseWriter

	mu        sync.Mutex
	tokenHash string
	loaded    bool
	record    *Record
}

// Identity returns the identity stored for this session. A missing or
// expired record is anonymous; a store failure is returned as an error.
func (h *Handle) Identity(ctx context.Context) (auth.SessionIdentity, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tokenHash == "" {
		return auth.SessionIdentity{}, false, nil
	}
	if !h.loaded {
		rec, err := h.m.store.Load(ctx, h.tokenHash)
		switch {
		case errors.Is(err, ErrNotFound):
			h.m.expireCookie(h.w)
			h.tokenHash = ""
		case err != nil:
			return auth.SessionIdentity{}, false, err
		default:
			h.record = rec
		}
		h.loaded = true
	}
	if h.record == nil {
		return auth.SessionIdentity{}, false, nil
	}
	return h.record.Identity, true, nil
}

// Establish binds identity under a fresh token. The new record is written
// with one Save; if that fails the cookie and any previous session are left
// untouched. The previous record is deleted afterwards on a best-effort
// basis.
func (h *Handle) Establish(ctx context.Context, identity auth.SessionIdentity) error {
	if identity.IsZero() {
		return oops.Code("SESSION_INVALID_IDENTITY").Errorf("identity cannot be empty")
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return err
	}
	now := h.m.clock()
	rec := &Record{
		TokenHash: hash,
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(h.m.opts.TTL),
	}

	value, err := h.m.codec.Encode(token, now, rec.ExpiresAt)
	if err != nil {
		return err
	}
	if err := h.m.store.Save(ctx, rec); err != nil {
		return err
	}

	h.mu.Lock()
	previous := h.tokenHash
	h.tokenHash, h.record, h.loaded = hash, rec, true
	h.mu.Unlock()

	h.m.setCookie(h.w, value, rec.ExpiresAt)

	if previous != "" {
		if err := h.m.store.Delete(ctx, previous); err != nil {
			h.m.logger.WarnContext(ctx, "best-effort delete of rotated session failed",
				"operation", "delete_previous_session",
				"error", err)
		}
	}
	return nil
}

// Clear deletes the session record and expires the cookie. The cookie is
// expired even when the store delete fails.
func (h *Handle) Clear(ctx context.Context) error {
	h.mu.Lock()
	hash := h.tokenHash
	h.tokenHash, h.record, h.loaded = "", nil, true
	h.mu.Unlock()

	h.m.expireCookie(h.w)

	if hash == "" {
		return nil
	}
	return h.m.store.Delete(ctx, hash)
}

var _ auth.SessionHandle = (*Handle)(nil)
