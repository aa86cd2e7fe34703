package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/api/metrics"
	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

const bearerScheme = "bearer"

// Authenticate resolves an optional bearer token into a principal stored on
// the request context. A missing or rejected token is not an error here: the
// request continues unauthenticated and the Gate decides whether that is
// acceptable. Routes for which skipper returns true never parse tokens.
func Authenticate(authenticator ports.Authenticator, log zerolog.Logger, skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			req := c.Request()
			principal, err := authenticator.Authenticate(req.Context(), raw)
			if err != nil {
				result := verificationResult(err)
				metrics.TokenVerificationsTotal.WithLabelValues(result).Inc()

				ev := log.Debug()
				if result == "error" {
					ev = log.Warn()
				}
				ev.Err(err).
					Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
					Str("path", req.URL.Path).
					Msg("bearer token rejected")
				return next(c)
			}

			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
			c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), principal)))
			return next(c)
		}
	}
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrExpiredToken):
		return "expired"
	case errors.Is(err, domain.ErrRevokedToken):
		return "revoked"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}
