// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/auth/mocks"
	"github.com/helpdeskhq/helpdesk/pkg/errutil"
)

func TestIdentityManager_Serialize(t *testing.T) {
	m, err := auth.NewIdentityManager(mocks.NewMockAccountRepository(t))
	require.NoError(t, err)

	account := &auth.Account{ID: ulid.Make(), Username: "alice", PasswordHash: "secret-hash"}
	identity := m.Serialize(account)
	assert.Equal(t, account.ID, identity.AccountID)

	data, err := json.Marshal(identity)
	require.NoError(t, err)
	assert.JSONEq(t, `{"account_id":"`+account.ID.String()+`"}`, string(data))
	assert.NotContains(t, string(data), "secret-hash")
	assert.NotContains(t, string(data), "alice")
}

func TestIdentityManager_Deserialize(t *testing.T) {
	ctx := context.Background()

	t.Run("re-reads the account", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		m, err := auth.NewIdentityManager(accounts)
		require.NoError(t, err)

		account := &auth.Account{ID: ulid.Make(), Username: "alice"}
		accounts.On("GetByID", ctx, account.ID).Return(account, nil).Twice()

		for range 2 {
			got, err := m.Deserialize(ctx, auth.SessionIdentity{AccountID: account.ID})
			require.NoError(t, err)
			assert.Equal(t, account, got)
		}
	})

	t.Run("deleted account is not found", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		m, err := auth.NewIdentityManager(accounts)
		require.NoError(t, err)

		id := ulid.Make()
		accounts.On("GetByID", ctx, id).Return(nil, auth.ErrNotFound)

		_, err = m.Deserialize(ctx, auth.SessionIdentity{AccountID: id})
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})

	t.Run("zero identity is not found without a lookup", func(t *testing.T) {
		m, err := auth.NewIdentityManager(mocks.NewMockAccountRepository(t))
		require.NoError(t, err)

		_, err = m.Deserialize(ctx, auth.SessionIdentity{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorCode(t, err, "SESSION_IDENTITY_EMPTY")
	})

	t.Run("store failure is not reported as not found", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		m, err := auth.NewIdentityManager(accounts)
		require.NoError(t, err)

		id := ulid.Make()
		accounts.On("GetByID", ctx, id).Return(nil, errors.New("timeout"))

		_, err = m.Deserialize(ctx, auth.SessionIdentity{AccountID: id})
		require.Error(t, err)
		assert.False(t, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorCode(t, err, auth.CodeLookupFailed)
	})

	t.Run("nil repository rejected", func(t *testing.T) {
		_, err := auth.NewIdentityManager(nil)
		require.Error(t, err)
	})
}
