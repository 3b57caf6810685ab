// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code())
}

// AssertErrorContext asserts that err carries key=value in its oops context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	ctx := requireOops(t, err).Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertRejection asserts that err is a caller-facing rejection: it wraps
// sentinel, has the given code, and carries no context that could tell
// one failure cause from another.
func AssertRejection(t *testing.T, err error, sentinel error, code string) {
	t.Helper()
	oopsErr := requireOops(t, err)
	assert.True(t, errors.Is(err, sentinel), "expected %v in chain of %v", sentinel, err)
	assert.Equal(t, code, oopsErr.Code())
	assert.Empty(t, oopsErr.Context(), "rejections must not carry context")
}
