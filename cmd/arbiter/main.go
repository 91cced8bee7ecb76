package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/arbiter-io/arbiter/internal/apikeys"
	"github.com/arbiter-io/arbiter/internal/app"
	"github.com/arbiter-io/arbiter/internal/auth"
	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/members"
	"github.com/arbiter-io/arbiter/internal/observability"
	"github.com/arbiter-io/arbiter/internal/platform/cache"
	"github.com/arbiter-io/arbiter/internal/platform/db"
	"github.com/arbiter-io/arbiter/internal/roles"
	"github.com/arbiter-io/arbiter/internal/shared"
	"github.com/arbiter-io/arbiter/internal/users"
	"github.com/arbiter-io/arbiter/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "arbiter_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo)

	membersRepo := members.NewRepository(pool)
	membersService := members.NewService(membersRepo, rolesService)

	decisions := authz.NewService(membersRepo, rolesRepo, logger)
	guard := authz.Middleware{Service: decisions, Logger: logger, Metrics: metrics}

	apikeyRepo := apikeys.NewRepository(pool)
	apikeyService := apikeys.NewService(apikeyRepo, rolesService, jobClient, logger)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, apikeyService)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	rolesHandler := roles.NewHandler(logger, rolesService, decisions, guard)
	membersHandler := members.NewHandler(logger, membersService, decisions)
	usersHandler := users.NewHandler(logger, usersService)
	apikeysHandler := apikeys.NewHandler(logger, apikeyService, decisions, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthService:    authService,
		AuthHandler:    authHandler,
		RolesHandler:   rolesHandler,
		MembersHandler: membersHandler,
		UsersHandler:   usersHandler,
		APIKeysHandler: apikeysHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
