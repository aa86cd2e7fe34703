package ports

import (
	"context"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create must reject duplicates atomically, returning
	// domain.ErrDuplicateUsername or domain.ErrDuplicateEmail.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// RoleRepository reads the seeded role reference data.
type RoleRepository interface {
	// FindByName returns domain.ErrRoleNotFound when the role is not seeded.
	FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
	// Ensure inserts the role if absent and returns the stored record.
	Ensure(ctx context.Context, name domain.RoleName) (*domain.Role, error)
}
