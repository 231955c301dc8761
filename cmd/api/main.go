package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/kubitskyi/contacts-api/api/routes"
	"github.com/kubitskyi/contacts-api/internal/auth"
	"github.com/kubitskyi/contacts-api/internal/contacts"
	"github.com/kubitskyi/contacts-api/internal/users"
	"github.com/kubitskyi/contacts-api/pkg/auth/session"
	"github.com/kubitskyi/contacts-api/pkg/config"
	"github.com/kubitskyi/contacts-api/pkg/db"
	"github.com/kubitskyi/contacts-api/pkg/env"
	"github.com/kubitskyi/contacts-api/pkg/gravatar"
	"github.com/kubitskyi/contacts-api/pkg/logger"
	"github.com/kubitskyi/contacts-api/pkg/metrics"
	"github.com/kubitskyi/contacts-api/pkg/migrate"
	"github.com/kubitskyi/contacts-api/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "contacts-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "contacts-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)

	usersRepo := users.NewRepository(users.RepositoryParams{
		DB:            dbClient.DB(),
		Avatars:       gravatar.NewClient(cfg.Gravatar),
		AvatarMetrics: metrics.NewAvatarMetrics(registry),
		Logger:        logg,
	})

	sessionManager, err := session.NewManager(usersRepo)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:              usersRepo,
		SessionManager:        sessionManager,
		JWTConfig:             cfg.JWT,
		PasswordConfig:        cfg.Password,
		RequireConfirmedEmail: cfg.FeatureFlags.RequireConfirmedEmail,
		Logger:                logg,
	})
	if err != nil {
		return err
	}

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		return err
	}

	contactsService, err := contacts.NewService(contacts.ServiceParams{
		Repo: contacts.NewRepository(dbClient.DB()),
	})
	if err != nil {
		return err
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			httpMetrics,
			usersRepo,
			authService,
			usersService,
			contactsService,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
