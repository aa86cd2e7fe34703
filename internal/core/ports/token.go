package ports

import (
	"context"
	"time"
)

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies bearer tokens. Verify never panics on
// malformed input; it returns domain.ErrInvalidToken or
// domain.ErrExpiredToken.
type TokenCodec interface {
	Issue(subject string, now time.Time) (token string, claims TokenClaims, err error)
	Verify(token string, now time.Time) (*TokenClaims, error)
}

// TokenRevoker tracks tokens invalidated before their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PasswordHasher is the one-way credential hash primitive.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}
