package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/hotwind-erp/hotwind/cmd/hotwind/cli"
	"github.com/hotwind-erp/hotwind/internal/app"
	"github.com/hotwind-erp/hotwind/internal/catalog"
	"github.com/hotwind-erp/hotwind/internal/customers"
	"github.com/hotwind-erp/hotwind/internal/fx"
	"github.com/hotwind-erp/hotwind/internal/inventory"
	"github.com/hotwind-erp/hotwind/internal/invoicing"
	"github.com/hotwind-erp/hotwind/internal/platform/cache"
	"github.com/hotwind-erp/hotwind/internal/platform/db"
	"github.com/hotwind-erp/hotwind/internal/reports"
	"github.com/hotwind-erp/hotwind/internal/shared"
	"github.com/hotwind-erp/hotwind/jobs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Default().Debug("no .env file loaded", slog.Any("error", err))
	}

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

	fxRepo := fx.NewRepository(pool, cfg.LocalCurrency)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := fx.NewGenerator(fxRepo, rng, cfg.LocalCurrency, fx.GeneratorConfig{
		Drift:      cfg.RateDrift,
		Volatility: cfg.RateVolatility,
	})
	fxService := fx.NewService(fxRepo, generator, cfg.LocalCurrency)

	if len(os.Args) > 1 && os.Args[1] == "fx-backfill" {
		os.Exit(runFXBackfill(ctx, fxRepo, fxService, cfg))
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	idempotencyStore := shared.NewIdempotencyStore(pool)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	inventoryRepo := inventory.NewRepository(pool)

	fxHandler := fx.NewHandler(logger, fxService)

	reportsRepo := reports.NewRepository(pool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, fxService, reportsCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	invoicesRepo := invoicing.NewRepository(pool)
	invoicesService := invoicing.NewService(invoicesRepo, customersRepo, catalogRepo, inventoryRepo)
	invoicesHandler := invoicing.NewHandler(logger, invoicesService, idempotencyStore, reportsCache)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CustomersHandler: customersHandler,
		CatalogHandler:   catalogHandler,
		RatesHandler:     fxHandler,
		InvoicesHandler:  invoicesHandler,
		ReportsHandler:   reportsHandler,
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

func runFXBackfill(ctx context.Context, store cli.RateInventory, generator cli.RateGenerator, cfg *app.Config) int {
	fs := flag.NewFlagSet("fx-backfill", flag.ExitOnError)
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	mode := fs.String("mode", "dry", "dry or apply")
	async := fs.Bool("async", false, "enqueue generation for the worker instead of running inline")
	jsonOut := fs.Bool("json", false, "emit JSON summary")
	_ = fs.Parse(os.Args[2:])

	queueClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		_ = queueClient.Close()
	}()

	backfill := cli.NewFXBackfillCLI(store, generator, cfg.LocalCurrency).
		WithQueue(rateQueue{client: queueClient})
	return backfill.BackfillCommand(ctx, cli.FXBackfillOptions{
		From:       *from,
		To:         *to,
		Mode:       cli.FXBackfillMode(*mode),
		Async:      *async,
		JSONOutput: *jsonOut,
	})
}

// rateQueue adapts the jobs client to the CLI's queue port.
type rateQueue struct {
	client *jobs.Client
}

func (q rateQueue) EnqueueGenerateRates(ctx context.Context, start, end string) error {
	_, err := q.client.EnqueueGenerateRates(ctx, jobs.GenerateRatesPayload{
		StartDate: start,
		EndDate:   end,
	})
	return err
}
