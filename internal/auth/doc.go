// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

// Package auth implements username/password authentication for Helpdesk.
//
// # Domain Types
//
// Account stores build new accounts with NewAccount, which validates the
// username and password hash and assigns the ID. Direct struct
// initialization bypasses validation.
//
// # Components
//
//   - PasswordHasher - one-way salted hashing (Argon2idHasher, BcryptHasher,
//     CompositeHasher, LimitedHasher)
//   - CredentialVerifier - accept/reject decision for a credential
//     (PasswordVerifier is the username+password variant)
//   - IdentityManager - projects an Account to a SessionIdentity and resolves
//     it back against the account store on every request
//   - Gateway - register, login, session resolution and logout
//
// The Gateway never talks to cookies or session stores directly. Each call
// receives the request's SessionHandle, so session state is passed
// explicitly rather than held in package-level state.
package auth
