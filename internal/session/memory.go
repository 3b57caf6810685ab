// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	clock   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), clock: time.Now}
}

// Load returns the live record for tokenHash.
func (s *MemoryStore) Load(_ context.Context, tokenHash string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[tokenHash]
	s.mu.RUnlock()

	if !ok || rec.ExpiredAt(s.clock()) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	return &rec, nil
}

// Save stores a copy of rec.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	if rec.TokenHash == "" {
		return oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.TokenHash] = *rec
	return nil
}

// Delete removes the record for tokenHash.
func (s *MemoryStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, tokenHash)
	return nil
}

// DeleteExpired removes expired records.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, rec := range s.records {
		if rec.ExpiredAt(now) {
			delete(s.records, hash)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
