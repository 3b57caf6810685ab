// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// LimitedHasher bounds the number of hash computations running at once.
// Each argon2id computation holds its full memory cost for its duration, so
// a login burst would otherwise grow memory with the number of requests.
// Callers beyond the limit wait; a cancelled context abandons the wait.
type LimitedHasher struct {
	next SchemeHasher
	sem  *semaphore.Weighted
}

// NewLimitedHasher wraps next so at most limit Hash/Verify calls run
// concurrently. A limit below 1 is treated as 1.
func NewLimitedHasher(next SchemeHasher, limit int) *LimitedHasher {
	if limit < 1 {
		limit = 1
	}
	return &LimitedHasher{next: next, sem: semaphore.NewWeighted(int64(limit))}
}

// Hash waits for a slot and hashes with the wrapped hasher.
func (h *LimitedHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", oops.Code(CodeHashFailed).
			With("operation", "acquire hash slot").
			Wrap(err)
	}
	defer h.sem.Release(1)
	return h.next.Hash(ctx, password)
}

// Verify waits for a slot and verifies with the wrapped hasher.
func (h *LimitedHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, oops.Code(CodeHashFailed).
			With("operation", "acquire hash slot").
			Wrap(err)
	}
	defer h.sem.Release(1)
	return h.next.Verify(ctx, password, hash)
}

// Handles delegates to the wrapped hasher.
func (h *LimitedHasher) Handles(hash string) bool {
	return h.next.Handles(hash)
}

var _ SchemeHasher = (*LimitedHasher)(nil)
