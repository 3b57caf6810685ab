// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/auth/memory"
)

// failingStore fails the configured operations.
type failingStore struct {
	*MemoryStore
	loadErr, saveErr, deleteErr error
}

func (s *failingStore) Load(ctx context.Context, hash string) (*Record, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load(ctx, hash)
}

func (s *failingStore) Save(ctx context.Context, rec *Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, rec)
}

func (s *failingStore) Delete(ctx context.Context, hash string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, hash)
}

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	codec, err := NewCookieCodec(testSecret)
	require.NoError(t, err)
	m, err := NewManagerWithLogger(store, codec, Options{TTL: time.Hour},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

// sessionCookie returns the session cookie set on rec, if any.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			found = c
		}
	}
	return found
}

func requestWith(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	codec, err := NewCookieCodec(testSecret)
	require.NoError(t, err)

	_, err = NewManager(nil, codec, Options{})
	require.Error(t, err)
	_, err = NewManager(NewMemoryStore(), nil, Options{})
	require.Error(t, err)
	_, err = NewManagerWithLogger(NewMemoryStore(), codec, Options{}, nil)
	require.Error(t, err)

	m, err := NewManager(NewMemoryStore(), codec, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCookieName, m.CookieName())
}

func TestHandle_AnonymousWithoutCookie(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	h := m.Load(httptest.NewRecorder(), requestWith(nil))

	_, ok, err := h.Identity(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandle_EstablishThenResolve(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestManager(t, store)
	identity := auth.SessionIdentity{AccountID: ulid.Make()}

	rec := httptest.NewRecorder()
	h := m.Load(rec, requestWith(nil))
	require.NoError(t, h.Establish(ctx, identity))

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 1, store.Len())

	// Same handle sees the identity immediately.
	got, ok, err := h.Identity(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, identity, got)

	// A later request carrying the cookie resolves to it as well.
	next := m.Load(httptest.NewRecorder(), requestWith(c))
	got, ok, err = next.Identity(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, identity, got)
}

func TestHandle_EstablishRotatesToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestManager(t, store)

	first := httptest.NewRecorder()
	require.NoError(t, m.Load(first, requestWith(nil)).Establish(ctx, auth.SessionIdentity{AccountID: ulid.Make()}))
	oldCookie := sessionCookie(first)
	require.NotNil(t, oldCookie)

	second := httptest.NewRecorder()
	replacement := auth.SessionIdentity{AccountID: ulid.Make()}
	require.NoError(t, m.Load(second, requestWith(oldCookie)).Establish(ctx, replacement))
	newCookie := sessionCookie(second)
	require.NotNil(t, newCookie)
	assert.NotEqual(t, oldCookie.Value, newCookie.Value)
	assert.Equal(t, 1, store.Len(), "previous record is deleted")

	_, ok, err := m.Load(httptest.NewRecorder(), requestWith(oldCookie)).Identity(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "old token no longer resolves")

	got, ok, err := m.Load(httptest.NewRecorder(), requestWith(newCookie)).Identity(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, replacement, got)
}

func TestHandle_EstablishFailureWritesNothing(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), saveErr: errors.New("redis down")}
	m := newTestManager(t, store)

	rec := httptest.NewRecorder()
	err := m.Load(rec, requestWith(nil)).Establish(context.Background(), auth.SessionIdentity{AccountID: ulid.Make()})
	require.Error(t, err)
	assert.Nil(t, sessionCookie(rec))
	assert.Equal(t, 0, store.Len())
}

func TestHandle_EstablishRejectsZeroIdentity(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	err := m.Load(httptest.NewRecorder(), requestWith(nil)).Establish(context.Background(), auth.SessionIdentity{})
	require.Error(t, err)
}

func TestHandle_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestManager(t, store)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Load(rec, requestWith(nil)).Establish(ctx, auth.SessionIdentity{AccountID: ulid.Make()}))
	c := sessionCookie(rec)

	out := httptest.NewRecorder()
	h := m.Load(out, requestWith(c))
	require.NoError(t, h.Clear(ctx))
	require.NoError(t, h.Clear(ctx), "clear is idempotent")

	expired := sessionCookie(out)
	require.NotNil(t, expired)
	assert.Less(t, expired.MaxAge, 0)
	assert.Equal(t, 0, store.Len())

	_, ok, err := h.Identity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandle_ClearStoreFailureStillExpiresCookie(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore()}
	m := newTestManager(t, store)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Load(rec, requestWith(nil)).Establish(ctx, auth.SessionIdentity{AccountID: ulid.Make()}))
	c := sessionCookie(rec)

	store.deleteErr = errors.New("redis down")
	out := httptest.NewRecorder()
	h := m.Load(out, requestWith(c))
	require.Error(t, h.Clear(ctx))

	expired := sessionCookie(out)
	require.NotNil(t, expired)
	assert.Less(t, expired.MaxAge, 0)
}

func TestHandle_InvalidCookieIsAnonymous(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())

	rec := httptest.NewRecorder()
	h := m.Load(rec, requestWith(&http.Cookie{Name: DefaultCookieName, Value: "forged"}))

	_, ok, err := h.Identity(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	expired := sessionCookie(rec)
	require.NotNil(t, expired, "bad cookie is expired")
	assert.Less(t, expired.MaxAge, 0)
}

func TestHandle_StoreFailureIsReported(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore()}
	m := newTestManager(t, store)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Load(rec, requestWith(nil)).Establish(ctx, auth.SessionIdentity{AccountID: ulid.Make()}))

	store.loadErr = errors.New("redis timeout")
	_, ok, err := m.Load(httptest.NewRecorder(), requestWith(sessionCookie(rec))).Identity(ctx)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestHandle_ExpiredRecordIsAnonymous(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryStore()
	store.clock = func() time.Time { return now }
	m := newTestManager(t, store)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Load(rec, requestWith(nil)).Establish(ctx, auth.SessionIdentity{AccountID: ulid.Make()}))

	now = now.Add(2 * time.Hour)
	_, ok, err := m.Load(httptest.NewRecorder(), requestWith(sessionCookie(rec))).Identity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandle_WithGateway(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountRepository()
	gw, err := auth.NewGateway(accounts, auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1}),
		auth.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	m := newTestManager(t, NewMemoryStore())

	_, err = gw.Register(ctx, "alice", "correcthorse")
	require.NoError(t, err)

	loginRec := httptest.NewRecorder()
	_, err = gw.Login(ctx, m.Load(loginRec, requestWith(nil)), "alice", "correcthorse")
	require.NoError(t, err)

	res := gw.ResolveSession(ctx, m.Load(httptest.NewRecorder(), requestWith(sessionCookie(loginRec))))
	require.Equal(t, auth.Authenticated, res.State)
	assert.Equal(t, "alice", res.Account.Username)
}
