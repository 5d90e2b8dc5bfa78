// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "studentdir"

// RefreshClaims are the claims of a refresh token. ID carries the jti that
// is persisted so the token can be revoked.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenIssuer signs and validates HS256 refresh tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer returns an issuer for key. ttl is the refresh token lifetime.
func NewTokenIssuer(key []byte, ttl time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if len(key) < 16 {
		return nil, errors.New("identity: signing key must be at least 16 bytes")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{key: key, ttl: ttl, now: now}, nil
}

// Issue returns a signed token for userID, its jti and expiry.
func (p *TokenIssuer) Issue(userID, email string) (token, jti string, expiresAt time.Time, err error) {
	jti = uuid.NewString()
	now := p.now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	return token, jti, expiresAt, err
}

// Validate checks signature, expiry and issuer and returns the claims.
func (p *TokenIssuer) Validate(token string) (*RefreshClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &RefreshClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.key, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*RefreshClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
