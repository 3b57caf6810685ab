// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

// Package session carries auth.SessionIdentity between requests.
//
// A browser holds an opaque random token inside a signed cookie. The server
// keeps a Record keyed by the SHA-256 of that token in a Store (memory,
// redis or postgres), so a leaked store never reveals usable tokens.
// Manager.Load turns an incoming request into a Handle, which implements
// auth.SessionHandle for the Gateway.
package session
