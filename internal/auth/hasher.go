// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeInvalidPassword).Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password. Two calls with
	// the same password return different hashes.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// SchemeHasher is a PasswordHasher that can tell whether an encoded hash
// belongs to its algorithm.
type SchemeHasher interface {
	PasswordHasher
	Handles(hash string) bool
}

// Argon2Params tunes argon2id cost.
type Argon2Params struct {
	Time      uint32 // iterations
	MemoryKiB uint32
	Threads   uint8
	SaltLen   uint32 // salt length in bytes
	KeyLen    uint32 // output length in bytes
}

// DefaultArgon2Params are the OWASP-recommended argon2id parameters.
var DefaultArgon2Params = Argon2Params{
	Time:      1,
	MemoryKiB: 64 * 1024,
	Threads:   4,
	SaltLen:   16,
	KeyLen:    32,
}

const argon2Prefix = "$argon2id$"

// Stored hashes with costs above these bounds are rejected rather than
// computed.
const (
	MaxArgon2Time      = 16
	MaxArgon2MemoryKiB = 4 * 64 * 1024
)

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates an Argon2idHasher with DefaultArgon2Params.
func NewArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasherWithParams(DefaultArgon2Params)
}

// NewArgon2idHasherWithParams creates an Argon2idHasher. Zero fields fall
// back to DefaultArgon2Params.
func NewArgon2idHasherWithParams(p Argon2Params) *Argon2idHasher {
	if p.Time == 0 {
		p.Time = DefaultArgon2Params.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultArgon2Params.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2Params.Threads
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgon2Params.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgon2Params.KeyLen
	}
	return &Argon2idHasher{params: p}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := ctx.Err(); err != nil {
		return "", oops.Code(CodeHashFailed).Wrap(err)
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code(CodeHashFailed).
			With("operation", "crypto/rand.Read").
			Wrap(errors.Join(ErrHashingFailure, err))
	}

	hash := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if the password matches the hash using the parameters and
// salt embedded in it.
func (h *Argon2idHasher) Verify(_ context.Context, password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, oops.Code(CodeInvalidHash).Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, oops.Code(CodeInvalidHash).Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code(CodeInvalidHash).Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code(CodeInvalidHash).Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code(CodeInvalidHash).Wrap(err)
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code(CodeInvalidHash).Wrap(err)
	}

	// threads must fit in uint8
	if threads == 0 || threads > 255 {
		return false, oops.Code(CodeInvalidHash).Errorf("threads value %d out of range", threads)
	}
	if time == 0 || time > MaxArgon2Time {
		return false, oops.Code(CodeInvalidHash).
			With("time", time).
			Errorf("time value %d out of range", time)
	}
	if memory < 8*threads || memory > MaxArgon2MemoryKiB {
		return false, oops.Code(CodeInvalidHash).
			With("memory_kib", memory).
			Errorf("memory value %d out of range", memory)
	}

	keyLen := len(expectedHash)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code(CodeInvalidHash).Errorf("invalid hash key length: %d", keyLen)
	}

	computedHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

// Handles reports whether hash is an argon2id PHC string.
func (h *Argon2idHasher) Handles(hash string) bool {
	return strings.HasPrefix(hash, argon2Prefix)
}

// DefaultBcryptCost matches the cost used by accounts created before the
// argon2id migration.
const DefaultBcryptCost = 10

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. Out-of-range costs fall back to
// DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := ctx.Err(); err != nil {
		return "", oops.Code(CodeHashFailed).Wrap(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", oops.Code(CodeInvalidPassword).
				With("max", MaxPasswordBytes).
				Wrap(err)
		}
		return "", oops.Code(CodeHashFailed).
			With("operation", "bcrypt.GenerateFromPassword").
			Wrap(errors.Join(ErrHashingFailure, err))
	}
	return string(hash), nil
}

// Verify checks if the password matches the bcrypt hash.
func (h *BcryptHasher) Verify(_ context.Context, password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, oops.Code(CodeInvalidHash).Wrap(err)
}

// Handles reports whether hash is a bcrypt hash ($2a$, $2b$ or $2y$).
func (h *BcryptHasher) Handles(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// CompositeHasher hashes with a primary scheme and verifies against
// whichever registered scheme produced the stored hash.
type CompositeHasher struct {
	primary SchemeHasher
	schemes []SchemeHasher
}

// NewCompositeHasher creates a CompositeHasher. The primary scheme is
// always consulted first during verification.
func NewCompositeHasher(primary SchemeHasher, others ...SchemeHasher) *CompositeHasher {
	schemes := make([]SchemeHasher, 0, len(others)+1)
	schemes = append(schemes, primary)
	schemes = append(schemes, others...)
	return &CompositeHasher{primary: primary, schemes: schemes}
}

// Hash hashes with the primary scheme.
func (h *CompositeHasher) Hash(ctx context.Context, password string) (string, error) {
	return h.primary.Hash(ctx, password)
}

// Verify dispatches to the scheme that handles hash.
func (h *CompositeHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	for _, s := range h.schemes {
		if s.Handles(hash) {
			return s.Verify(ctx, password, hash)
		}
	}
	return false, oops.Code(CodeInvalidHash).Errorf("no hasher registered for stored hash format")
}

// Handles reports whether any registered scheme handles hash.
func (h *CompositeHasher) Handles(hash string) bool {
	for _, s := range h.schemes {
		if s.Handles(hash) {
			return true
		}
	}
	return false
}

var (
	_ SchemeHasher = (*Argon2idHasher)(nil)
	_ SchemeHasher = (*BcryptHasher)(nil)
	_ SchemeHasher = (*CompositeHasher)(nil)
)
