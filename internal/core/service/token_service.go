package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

const (
	// MinSecretLength is the minimum HS256 key size accepted.
	MinSecretLength = 32
	defaultTokenTTL = 24 * time.Hour
)

// TokenService signs and verifies HS256 bearer tokens carrying the
// subject username, issue time, expiry and a unique token id.
//
// JWT times are whole seconds. A token's issue time is the second in which
// it was issued, and it verifies for every t in [IssuedAt, IssuedAt+TTL).
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

var _ ports.TokenCodec = (*TokenService)(nil)

// NewTokenService returns a TokenService. The secret is held in memory only
// and must be at least MinSecretLength bytes.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token service: secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject. The issue time is now truncated to the
// second and is returned in the claims; expiry is exactly that time + TTL.
func (s *TokenService) Issue(subject string, now time.Time) (string, ports.TokenClaims, error) {
	if subject == "" {
		return "", ports.TokenClaims{}, errors.New("issue token: empty subject")
	}

	issuedAt := now.UTC().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", ports.TokenClaims{}, fmt.Errorf("issue token: %w", err)
	}

	return signed, ports.TokenClaims{
		ID:        claims.ID,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks the signature and expiry of token as of now. It returns
// domain.ErrExpiredToken once now reaches the expiry and wraps
// domain.ErrInvalidToken for every other failure, malformed input included.
func (s *TokenService) Verify(token string, now time.Time) (*ports.TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrInvalidToken
	}

	out := &ports.TokenClaims{
		ID:        claims.ID,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return s.secret, nil
}
