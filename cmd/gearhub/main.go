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

	"github.com/gearhub/gearhub/internal/app"
	"github.com/gearhub/gearhub/internal/audit"
	audithttp "github.com/gearhub/gearhub/internal/audit/http"
	"github.com/gearhub/gearhub/internal/auth"
	"github.com/gearhub/gearhub/internal/catalog"
	"github.com/gearhub/gearhub/internal/document"
	"github.com/gearhub/gearhub/internal/enquiries"
	"github.com/gearhub/gearhub/internal/observability"
	"github.com/gearhub/gearhub/internal/platform/cache"
	"github.com/gearhub/gearhub/internal/platform/db"
	"github.com/gearhub/gearhub/internal/rbac"
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

	logger := app.NewLogger(cfg, "api")

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Without Redis the API still serves; caching and token revocation are off.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, redisClient)
	authService := auth.NewService(auth.NewRepository(dbpool), tokens)
	authHandler := auth.NewHandler(logger, authService)

	catalogStore := cache.NewStore(redisClient, "catalog", cfg.CatalogTTL)
	catalogService := catalog.NewService(catalog.NewRepository(dbpool), catalogStore, auditLogger, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, rbacMiddleware)

	customerService := customers.NewService(customers.NewRepository(dbpool), auditLogger, logger)
	customerHandler := customers.NewHandler(logger, customerService, rbacMiddleware)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)
	images := document.NewImageLoader(&http.Client{Timeout: 10 * time.Second}, logger)
	renderer := document.NewRenderer(templates, reportClient, images, logger, cfg.DocumentOptions())
	exporter := document.NewExporter(renderer, cache.NewStore(redisClient, "documents", cfg.DocumentTTL), logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	quotationService := quotations.NewService(
		quotations.NewRepository(dbpool),
		catalogService,
		customerService,
		auditLogger,
		logger,
		quotations.Options{DefaultTaxRate: cfg.DefaultTaxRate, ValidityDays: cfg.ValidityDays},
	)
	quotationHandler := quotations.NewHandler(logger, quotationService, exporter, jobClient, rbacMiddleware)

	orderService := orders.NewService(
		orders.NewRepository(dbpool),
		catalogService,
		customerService,
		quotationService,
		auditLogger,
		logger,
		orders.Options{DefaultTaxRate: cfg.DefaultTaxRate},
	)
	orderHandler := orders.NewHandler(logger, orderService, exporter, jobClient, rbacMiddleware)

	enquiryService := enquiries.NewService(enquiries.NewRepository(dbpool), catalogService, auditLogger, logger)
	enquiryHandler := enquiries.NewHandler(logger, enquiryService, rbacMiddleware)

	auditHandler := audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		RBACMiddleware:   rbacMiddleware,
		Metrics:          metrics,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		CustomerHandler:  customerHandler,
		QuotationHandler: quotationHandler,
		OrderHandler:     orderHandler,
		EnquiryHandler:   enquiryHandler,
		AuditHandler:     auditHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
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
