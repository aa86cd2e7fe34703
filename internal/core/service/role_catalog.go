package service

import (
	"context"
	"fmt"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// RoleCatalog is the read-only set of seeded roles, loaded once at startup.
type RoleCatalog struct {
	byName map[domain.RoleName]domain.Role
	strict bool
}

// NewRoleCatalog builds a catalog from already loaded roles. Every role in
// domain.AllRoles must be present. When strict is set, unrecognised role
// names at signup are rejected instead of falling back to USER.
func NewRoleCatalog(roles []domain.Role, strict bool) (*RoleCatalog, error) {
	byName := make(map[domain.RoleName]domain.Role, len(roles))
	for _, r := range roles {
		byName[r.Name] = r
	}
	for _, name := range domain.AllRoles {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("role catalog: %s: %w", name, domain.ErrRoleNotFound)
		}
	}
	return &RoleCatalog{byName: byName, strict: strict}, nil
}

// LoadRoleCatalog reads every role from repo. With seed set, missing roles
// are inserted first; otherwise a missing role fails with
// domain.ErrRoleNotFound and the caller is expected to abort startup.
func LoadRoleCatalog(ctx context.Context, repo ports.RoleRepository, seed, strict bool) (*RoleCatalog, error) {
	roles := make([]domain.Role, 0, len(domain.AllRoles))
	for _, name := range domain.AllRoles {
		var (
			role *domain.Role
			err  error
		)
		if seed {
			role, err = repo.Ensure(ctx, name)
		} else {
			role, err = repo.FindByName(ctx, name)
		}
		if err != nil {
			return nil, fmt.Errorf("load role %s: %w", name, err)
		}
		roles = append(roles, *role)
	}
	return NewRoleCatalog(roles, strict)
}

// Role returns the catalog entry for name.
func (c *RoleCatalog) Role(name domain.RoleName) (domain.Role, bool) {
	r, ok := c.byName[name]
	return r, ok
}

// Resolve maps requested signup role names to roles. An empty request
// yields {USER}. Unrecognised names become USER unless the catalog is
// strict, in which case domain.ErrUnknownRole is returned.
func (c *RoleCatalog) Resolve(requested []string) ([]domain.Role, error) {
	if len(requested) == 0 {
		return []domain.Role{c.byName[domain.RoleUser]}, nil
	}

	names := make(map[domain.RoleName]struct{}, len(requested))
	for _, raw := range requested {
		name, ok := domain.LookupRoleName(raw)
		if !ok {
			if c.strict {
				return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, raw)
			}
			name = domain.RoleUser
		}
		names[name] = struct{}{}
	}

	roles := make([]domain.Role, 0, len(names))
	for name := range names {
		roles = append(roles, c.byName[name])
	}
	domain.SortRoles(roles)
	return roles, nil
}
