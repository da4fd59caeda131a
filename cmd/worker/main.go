package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/hotwind-erp/hotwind/internal/app"
	"github.com/hotwind-erp/hotwind/internal/fx"
	"github.com/hotwind-erp/hotwind/internal/platform/db"
	"github.com/hotwind-erp/hotwind/internal/shared"
	"github.com/hotwind-erp/hotwind/jobs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Default().Debug("no .env file loaded", slog.Any("error", err))
	}

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	fxRepo := fx.NewRepository(pool, cfg.LocalCurrency)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := fx.NewGenerator(fxRepo, rng, cfg.LocalCurrency, fx.GeneratorConfig{
		Drift:      cfg.RateDrift,
		Volatility: cfg.RateVolatility,
	})
	fxService := fx.NewService(fxRepo, generator, cfg.LocalCurrency)

	idempotencyStore := shared.NewIdempotencyStore(pool)

	nightlyRates, err := jobs.NewGenerateRatesTask(jobs.GenerateRatesPayload{})
	if err != nil {
		logger.Error("build rates task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeGenerateRates, Handler: jobs.NewGenerateRatesHandler(logger, fxService)},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(logger, idempotencyStore)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 0 * * *", Task: nightlyRates, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
