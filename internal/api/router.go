package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/auth-system/docs"
	"github.com/99minutos/auth-system/internal/api/handler"
	"github.com/99minutos/auth-system/internal/api/middleware"
	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs. Registerer and Gatherer
// may be nil, in which case no HTTP metrics are collected or served.
type Deps struct {
	Auth          ports.AuthService
	Authenticator ports.Authenticator
	HealthChecks  map[string]handler.HealthCheck
	Log           zerolog.Logger

	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
	SwaggerEnabled bool
}

// AccessRules is the route policy table, most specific first.
func AccessRules() []middleware.Rule {
	return []middleware.Rule{
		{Pattern: "/api/auth/signout", Policy: middleware.Authenticated},
		{Pattern: "/api/auth/**", Policy: middleware.Anonymous},
		{Pattern: "/api/test/all", Policy: middleware.Anonymous},
		{Pattern: "/api/test/user", Policy: middleware.RequireRole(domain.RoleUser, domain.RoleModerator, domain.RoleAdmin)},
		{Pattern: "/api/test/mod", Policy: middleware.RequireRole(domain.RoleModerator)},
		{Pattern: "/api/test/admin", Policy: middleware.RequireRole(domain.RoleAdmin)},
		{Pattern: "/health/**", Policy: middleware.Anonymous},
		{Pattern: "/metrics", Policy: middleware.Anonymous},
		{Pattern: "/swagger/**", Policy: middleware.Anonymous},
	}
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	gate := middleware.NewGate(AccessRules()...)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "http",
			Registerer: deps.Registerer,
		}))
	}
	e.Use(middleware.Authenticate(deps.Authenticator, deps.Log, gate.IsAnonymous))
	e.Use(gate.Middleware())

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	auth := e.Group("/api/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/signin", authHandler.Signin)
	auth.POST("/signout", authHandler.Signout)
	auth.GET("/hello", authHandler.Hello)

	// --- Content routes (access decided by the gate) ---
	contentHandler := handler.NewContentHandler()
	content := e.Group("/api/test")
	content.GET("/all", contentHandler.Public)
	content.GET("/user", contentHandler.User)
	content.GET("/mod", contentHandler.Moderator)
	content.GET("/admin", contentHandler.Admin)
	e.GET("/api/users/me", contentHandler.Me)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.HealthChecks)
	e.GET("/health", healthHandler.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness: are dependencies up?

	// --- Ops ---
	if deps.Gatherer != nil {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	}
	if deps.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
