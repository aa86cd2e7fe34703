package domain

import (
	"context"
	"time"
)

// Principal is the authenticated identity attached to a single request.
type Principal struct {
	UserID      string
	Username    string
	Email       string
	Authorities []string

	// TokenID and ExpiresAt describe the bearer token that produced the
	// principal; sign-out uses them to revoke it.
	TokenID   string
	ExpiresAt time.Time
}

// HasAuthority reports whether the principal was granted authority.
func (p *Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p *Principal) HasAnyRole(roles ...RoleName) bool {
	for _, r := range roles {
		if p.HasAuthority(r.Authority()) {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
