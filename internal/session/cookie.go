// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// MinSecretBytes is the shortest accepted cookie signing secret.
const MinSecretBytes = 32

const cookieIssuer = "helpdesk"

// ErrInvalidCookie is returned when a cookie value fails verification.
var ErrInvalidCookie = errors.New("invalid session cookie")

// cookieClaims is the JWT payload carried in the session cookie.
type cookieClaims struct {
	jwt.RegisteredClaims
	SessionToken string `json:"sid"`
}

// CookieCodec signs and verifies session cookie values as HS256 JWTs.
type CookieCodec struct {
	secret []byte
}

// NewCookieCodec creates a CookieCodec. secret must be at least
// MinSecretBytes long.
func NewCookieCodec(secret []byte) (*CookieCodec, error) {
	if len(secret) < MinSecretBytes {
		return nil, oops.Code("SESSION_SECRET_TOO_SHORT").
			With("min", MinSecretBytes).
			Errorf("session secret must be at least %d bytes", MinSecretBytes)
	}
	return &CookieCodec{secret: secret}, nil
}

// Encode wraps token in a signed value that expires at expiresAt.
func (c *CookieCodec) Encode(token string, issuedAt, expiresAt time.Time) (string, error) {
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionToken: token,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("SESSION_COOKIE_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Decode verifies value and returns the session token inside it.
// Tampered, expired or foreign values return an error wrapping
// ErrInvalidCookie.
func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(value, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", oops.Code("SESSION_COOKIE_INVALID").Wrap(errors.Join(ErrInvalidCookie, err))
	}
	if !token.Valid || claims.SessionToken == "" {
		return "", oops.Code("SESSION_COOKIE_INVALID").Wrap(ErrInvalidCookie)
	}
	return claims.SessionToken, nil
}
