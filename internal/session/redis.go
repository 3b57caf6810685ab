// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "helpdesk:session:"

// RedisStore keeps records in Redis as JSON with a native TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	clock  func() time.Time
}

// NewRedisStore creates a RedisStore. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, clock: time.Now}
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

// Load returns the live record for tokenHash.
func (s *RedisStore) Load(ctx context.Context, tokenHash string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
		}
		return nil, oops.Code("SESSION_LOAD_FAILED").
			With("operation", "redis get").
			Wrap(err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, oops.Code("SESSION_CORRUPT").
			With("operation", "decode session").
			Wrap(err)
	}
	rec.TokenHash = tokenHash

	if rec.ExpiredAt(s.clock()) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	return &rec, nil
}

// Save writes rec with one SET carrying the remaining lifetime as TTL.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec.TokenHash == "" {
		return oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	ttl := rec.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		return oops.Code("SESSION_INVALID_EXPIRY").
			With("expires_at", rec.ExpiresAt).
			Errorf("session already expired")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").
			With("operation", "encode session").
			Wrap(err)
	}

	if err := s.client.Set(ctx, s.key(rec.TokenHash), data, ttl).Err(); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").
			With("operation", "redis set").
			Wrap(err)
	}
	return nil
}

// Delete removes the record for tokenHash.
func (s *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "redis del").
			Wrap(err)
	}
	return nil
}

// DeleteExpired is a no-op; Redis evicts keys when their TTL lapses.
func (s *RedisStore) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return oops.Code("SESSION_STORE_UNAVAILABLE").
			With("operation", "redis ping").
			Wrap(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
