package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// TokenAuthenticator turns a bearer token into a request principal. It
// caches nothing: every call verifies the token and reloads the user.
type TokenAuthenticator struct {
	tokens  ports.TokenCodec
	users   ports.UserRepository
	revoker ports.TokenRevoker
	now     func() time.Time
}

var _ ports.Authenticator = (*TokenAuthenticator)(nil)

// NewTokenAuthenticator returns a TokenAuthenticator. revoker may be nil,
// in which case sign-out revocation is not consulted.
func NewTokenAuthenticator(tokens ports.TokenCodec, users ports.UserRepository, revoker ports.TokenRevoker) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens, users: users, revoker: revoker, now: time.Now}
}

// Authenticate verifies rawToken, rejects revoked tokens and resolves the
// subject to an existing user.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	claims, err := a.tokens.Verify(rawToken, a.now())
	if err != nil {
		return nil, err
	}

	if a.revoker != nil && claims.ID != "" {
		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("authenticate: revocation check: %w", err)
		}
		if revoked {
			return nil, domain.ErrRevokedToken
		}
	}

	user, err := a.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: subject no longer exists", domain.ErrInvalidToken)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return &domain.Principal{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Authorities: user.Authorities(),
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}
