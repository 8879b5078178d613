package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap((*config.Config).ValidateWorker)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.InfoContext(ctx, "Starting fintrack-worker",
		log.FieldOperation, log.OpStartup,
		"audit_interval", cfg.AuditInterval.String())
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Worker failed", log.FieldError, err.Error())
		stop()
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Worker shutdown complete", log.FieldOperation, log.OpShutdown)
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
	if result.AMQP == nil {
		return fmt.Errorf("AMQP broker unavailable at %s", cfg.AMQPURL)
	}

	auditWorker := worker.NewAuditWorker(services.NewAuditor(result.Store, logger), cfg.AuditInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return result.AMQP.ConsumeWithRetry(gctx, auditWorker.HandleLedgerEvent)
	})
	g.Go(func() error {
		return auditWorker.RunPeriodic(gctx)
	})
	err = g.Wait()

	stats := auditWorker.Stats()
	logger.InfoContext(ctx, "Audit totals", "accounts_audited", stats.Processed, "mismatches", stats.Mismatches)
	return err
}
