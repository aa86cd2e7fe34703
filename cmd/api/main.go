package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/api"
	"github.com/99minutos/auth-system/internal/api/handler"
	"github.com/99minutos/auth-system/internal/api/metrics"
	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/service"
	mongodb "github.com/99minutos/auth-system/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/auth-system/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-system/internal/infrastructure/queue"
	"github.com/99minutos/auth-system/internal/infrastructure/security"
	"github.com/99minutos/auth-system/internal/pkg/config"
	"github.com/99minutos/auth-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       Auth System API
// @version                     1.0
// @description                 User registration, token sign-in and role-based access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "auth-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- MongoDB ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	users := mongodb.NewUserRepository(db)
	roleRepo := mongodb.NewRoleRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	if err := mongodb.EnsureIndexes(ctx, users, roleRepo, auditRepo); err != nil {
		return err
	}

	// Missing seed data is a deployment defect: refuse to start.
	roles, err := service.LoadRoleCatalog(ctx, roleRepo, cfg.Auth.SeedRoles, cfg.Auth.StrictRoleNames)
	if err != nil {
		return err
	}

	// --- Redis ---
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	revocations := redisstore.NewRevocationStore(rdb)

	// --- Core ---
	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	auditCtx, cancelAudit := context.WithCancel(context.Background())
	defer cancelAudit()

	dispatcher := queue.NewDispatcher(
		cfg.Audit.Workers,
		service.NewAuditService(auditRepo, logger.Component("audit")),
		logger.Component("dispatcher"),
		queue.WithDropHook(func(domain.AuthEvent) { metrics.AuditEventsDroppedTotal.Inc() }),
	)
	dispatcher.Start(auditCtx)
	if err := metrics.RegisterAuditQueueDepth(prometheus.DefaultRegisterer, dispatcher.Depth); err != nil {
		log.Warn().Err(err).Msg("audit queue depth gauge not registered")
	}

	authService := service.NewAuthService(users, roles, hasher, tokens, revocations, dispatcher, logger.Component("auth"))
	authenticator := service.NewTokenAuthenticator(tokens, users, revocations)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:          authService,
		Authenticator: authenticator,
		HealthChecks: map[string]handler.HealthCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   revocations.Ping,
		},
		Log:            logger.Component("http"),
		Registerer:     prometheus.DefaultRegisterer,
		Gatherer:       prometheus.DefaultGatherer,
		SwaggerEnabled: cfg.SwaggerEnabled,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// Stop accepting audit work only after in-flight requests are done;
	// Wait returns once every queued event has been written.
	cancelAudit()
	dispatcher.Wait()
	return nil
}
