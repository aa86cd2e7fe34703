package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// ctxPrincipal returns the principal attached by the Authenticate
// middleware. Protected routes are already gated, so a missing principal
// means the route was wired without the gate.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(domain.ErrUnauthorized)
	}
	return p, nil
}
