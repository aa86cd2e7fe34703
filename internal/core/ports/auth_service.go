package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// RegisterInput carries a signup request. A nil or empty Roles set means
// the default USER role.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token       string
	ExpiresAt   time.Time
	UserID      string
	Username    string
	Email       string
	Authorities []string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, principal *domain.Principal) error
}

// Authenticator resolves a raw bearer token into a request principal.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error)
}
