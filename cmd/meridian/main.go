package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-hr/meridian/internal/analytics"
	"github.com/meridian-hr/meridian/internal/app"
	"github.com/meridian-hr/meridian/internal/auth"
	"github.com/meridian-hr/meridian/internal/eventlog"
	"github.com/meridian-hr/meridian/internal/governance"
	"github.com/meridian-hr/meridian/internal/observability"
	"github.com/meridian-hr/meridian/internal/policy"
	"github.com/meridian-hr/meridian/internal/rbac"
	"github.com/meridian-hr/meridian/internal/store"
	"github.com/meridian-hr/meridian/internal/workflow"
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	events, err := eventlog.Open(cfg.EventLogPath)
	if err != nil {
		logger.Error("open event log", slog.Any("error", err))
		os.Exit(1)
	}

	records := store.New()
	if err := records.Seed(); err != nil {
		logger.Error("seed store", slog.Any("error", err))
		os.Exit(1)
	}

	docs, err := policy.LoadDocuments(cfg.PolicyDataPath)
	if err != nil {
		logger.Error("load policy corpus", slog.Any("error", err))
		os.Exit(1)
	}

	rbacMiddleware := rbac.Middleware{Logger: logger}

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(records, tokens, events)
	authHandler := auth.NewHandler(logger, authService, rbacMiddleware)

	governanceService := governance.NewService(records, events)
	governanceHandler := governance.NewHandler(logger, governanceService, rbacMiddleware)

	workflowService := workflow.NewService(records, events, governanceService)
	workflowHandler := workflow.NewHandler(logger, workflowService, rbacMiddleware)

	policyService := policy.NewService(docs, records, events, governanceService)
	policyHandler := policy.NewHandler(logger, policyService)

	analyticsService := analytics.NewService(events)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, rbacMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthService:       authService,
		AuthHandler:       authHandler,
		WorkflowHandler:   workflowHandler,
		PolicyHandler:     policyHandler,
		GovernanceHandler: governanceHandler,
		AnalyticsHandler:  analyticsHandler,
		Metrics:           metrics,
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
