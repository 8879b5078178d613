package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.Bootstrap((*config.Config).Validate)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "Server failed", log.FieldError, err.Error())
		stop()
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.WarnContext(ctx, "Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	dashboards, closeDashboards, err := cache.Open[core.Dashboard](int64(cfg.CacheMaxItems), cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("dashboard cache: %w", err)
	}
	defer closeDashboards()
	trends, closeTrends, err := cache.Open[[]core.TrendPoint](int64(cfg.CacheMaxItems), cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("trend cache: %w", err)
	}
	defer closeTrends()

	reports := services.NewReportService(result.Store, cfg.RecentTransactions, logger,
		services.WithDashboardCache(dashboards),
		services.WithTrendCache(trends))
	ledger := services.NewLedgerService(result.Store, result.Publisher(), reports, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		JWTSecret:          cfg.JWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Services{
		Ledger:  ledger,
		Reports: reports,
		Auditor: services.NewAuditor(result.Store, logger),
		Store:   result.Store,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting fintrack server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", result.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(gctx, "Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
