package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/api/metrics"
	"github.com/99minutos/auth-system/internal/core/domain"
)

type policyKind int

const (
	policyAuthenticated policyKind = iota
	policyAnonymous
	policyRoles
)

// Policy decides which callers may reach a route.
type Policy struct {
	kind  policyKind
	roles []domain.RoleName
}

var (
	// Anonymous admits every request, authenticated or not.
	Anonymous = Policy{kind: policyAnonymous}
	// Authenticated admits any request carrying a principal.
	Authenticated = Policy{kind: policyAuthenticated}
)

// RequireRole admits principals holding at least one of roles.
func RequireRole(roles ...domain.RoleName) Policy {
	return Policy{kind: policyRoles, roles: roles}
}

// Rule binds a path pattern to a policy. A pattern ending in "/**" matches
// the prefix itself and everything below it; other patterns use path.Match
// syntax.
type Rule struct {
	Pattern string
	Policy  Policy
}

// Gate is the ordered route policy table. The first matching rule wins and
// unmatched paths require authentication.
type Gate struct {
	rules []Rule
}

func NewGate(rules ...Rule) *Gate {
	return &Gate{rules: rules}
}

// PolicyFor returns the policy that applies to urlPath.
func (g *Gate) PolicyFor(urlPath string) Policy {
	p := cleanPath(urlPath)
	for _, r := range g.rules {
		if matchPattern(r.Pattern, p) {
			return r.Policy
		}
	}
	return Authenticated
}

// IsAnonymous reports whether the request targets an anonymous route. It is
// meant to be used as the Authenticate skipper.
func (g *Gate) IsAnonymous(c echo.Context) bool {
	return g.PolicyFor(c.Request().URL.Path).kind == policyAnonymous
}

// Middleware rejects requests whose principal does not satisfy the route
// policy. It runs before routing resolves a handler, so unknown paths get
// the same answer as protected ones.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			policy := g.PolicyFor(c.Request().URL.Path)
			if policy.kind == policyAnonymous {
				metrics.GateDecisionsTotal.WithLabelValues("allow").Inc()
				return next(c)
			}

			principal, ok := domain.PrincipalFromContext(c.Request().Context())
			if !ok {
				metrics.GateDecisionsTotal.WithLabelValues("unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(domain.ErrUnauthorized)
			}

			if policy.kind == policyRoles && !principal.HasAnyRole(policy.roles...) {
				metrics.GateDecisionsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "forbidden").SetInternal(domain.ErrForbidden)
			}

			metrics.GateDecisionsTotal.WithLabelValues("allow").Inc()
			return next(c)
		}
	}
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}
