// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when an account with the same username
// already exists in the account store.
var ErrDuplicateUsername = errors.New("username already taken")

// ErrInvalidCredentials is the single rejection surfaced for any failed
// login, whatever the internal failure reason.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrHashingFailure is returned when the password hasher cannot produce or
// check a hash because of resource exhaustion.
var ErrHashingFailure = errors.New("password hashing failed")

// ErrUnsupportedCredentials is returned when a verifier receives a
// credential type it does not handle.
var ErrUnsupportedCredentials = errors.New("unsupported credentials")

// ErrUnavailable marks infrastructure failures surfaced by the Gateway.
// It is distinct from ErrInvalidCredentials so transports can answer with
// a service error instead of a credential rejection.
var ErrUnavailable = errors.New("authentication service unavailable")

// Error codes attached to oops errors returned by this package.
const (
	CodeInvalidCredentials     = "AUTH_INVALID_CREDENTIALS"
	CodeDuplicateUsername      = "AUTH_DUPLICATE_USERNAME"
	CodeInvalidUsername        = "AUTH_INVALID_USERNAME"
	CodeInvalidPassword        = "AUTH_INVALID_PASSWORD"
	CodeHashFailed             = "AUTH_HASH_FAILED"
	CodeInvalidHash            = "AUTH_INVALID_HASH"
	CodeLookupFailed           = "AUTH_LOOKUP_FAILED"
	CodeRegisterFailed         = "AUTH_REGISTER_FAILED"
	CodeSessionEstablishFailed = "AUTH_SESSION_ESTABLISH_FAILED"
	CodeLogoutFailed           = "AUTH_LOGOUT_FAILED"
	CodeUnsupportedCredentials = "AUTH_UNSUPPORTED_CREDENTIALS"
)
