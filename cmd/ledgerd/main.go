package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/purchase-ledger/internal/app"
	"github.com/odyssey-erp/purchase-ledger/internal/categories"
	"github.com/odyssey-erp/purchase-ledger/internal/notifications"
	"github.com/odyssey-erp/purchase-ledger/internal/observability"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/cache"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
	"github.com/odyssey-erp/purchase-ledger/internal/purchasing"
	"github.com/odyssey-erp/purchase-ledger/internal/reclassify"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
	"github.com/odyssey-erp/purchase-ledger/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

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

	metrics := observability.NewMetrics()
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	jobClient := jobs.NewClient(redisOpts)
	defer func() { _ = jobClient.Close() }()

	var notifier notifications.Sink = notifications.NewRepository(pool)
	if cfg.NotifyAsync {
		notifier = jobClient
	}

	purchasingService := purchasing.NewService(purchasing.NewRepository(pool), notifier, purchasing.ServiceConfig{
		PayableTermDays: cfg.PayableTermDays,
		Locale:          cfg.Locale,
		Logger:          logger,
		Metrics:         metrics,
	})
	stockService := stockledger.NewService(stockledger.NewRepository(pool), logger, metrics)
	reclassifyService := reclassify.NewService(reclassify.NewRepository(pool), logger, metrics)

	inspector := asynq.NewInspector(redisOpts)
	defer func() { _ = inspector.Close() }()

	seedCategories := func(ctx context.Context, tenantID uuid.UUID) ([]categories.Category, error) {
		return categories.SeedTenant(ctx, pool, tenantID)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		PurchasingHandler: purchasing.NewHandler(logger, purchasingService, cache.NewGuard(redisClient, cfg.IdempotencyTTL)),
		RecomputeHandler:  stockledger.NewHandler(logger, stockService),
		ReclassifyHandler: reclassify.NewHandler(logger, reclassifyService),
		CategoryHandler:   categories.NewHandler(logger, seedCategories),
		JobHandler:        jobs.NewHandler(inspector, jobClient, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
