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

	"github.com/hibiken/asynq"

	"github.com/gearhub/gearhub/internal/app"
	"github.com/gearhub/gearhub/internal/catalog"
	"github.com/gearhub/gearhub/internal/document"
	"github.com/gearhub/gearhub/internal/observability"
	"github.com/gearhub/gearhub/internal/platform/cache"
	"github.com/gearhub/gearhub/internal/platform/db"
	"github.com/gearhub/gearhub/internal/sales/customers"
	"github.com/gearhub/gearhub/internal/sales/orders"
	"github.com/gearhub/gearhub/internal/sales/quotations"
	"github.com/gearhub/gearhub/internal/shared"
	"github.com/gearhub/gearhub/internal/view"
	"github.com/gearhub/gearhub/jobs"
	"github.com/gearhub/gearhub/report"
)

func main() {
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

	logger := app.NewLogger(cfg, "worker")

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// The worker exists to fill the document cache, so Redis is required here.
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
	auditLogger := shared.NewAuditLogger(pool)

	catalogService := catalog.NewService(catalog.NewRepository(pool), cache.NewStore(redisClient, "catalog", cfg.CatalogTTL), auditLogger, logger)
	customerService := customers.NewService(customers.NewRepository(pool), auditLogger, logger)
	quotationService := quotations.NewService(
		quotations.NewRepository(pool),
		catalogService,
		customerService,
		auditLogger,
		logger,
		quotations.Options{DefaultTaxRate: cfg.DefaultTaxRate, ValidityDays: cfg.ValidityDays},
	)
	orderService := orders.NewService(
		orders.NewRepository(pool),
		catalogService,
		customerService,
		quotationService,
		auditLogger,
		logger,
		orders.Options{DefaultTaxRate: cfg.DefaultTaxRate},
	)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	images := document.NewImageLoader(&http.Client{Timeout: 10 * time.Second}, logger)
	renderer := document.NewRenderer(templates, report.NewClient(cfg.GotenbergURL), images, logger, cfg.DocumentOptions())
	exporter := document.NewExporter(renderer, cache.NewStore(redisClient, "documents", cfg.DocumentTTL), logger)

	renderJob := jobs.NewDocumentRenderJob(map[string]jobs.DocumentLoader{
		jobs.DocumentQuotation: quotationService.Document,
		jobs.DocumentOrder:     orderService.Document,
	}, exporter, logger, metrics.Jobs())

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDocumentRender, Handler: renderJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
