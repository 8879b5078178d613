package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// Auditor replays account ledgers against their stored balances.
type Auditor interface {
	AuditAccount(ctx context.Context, owner string, accountID int64) (core.AuditResult, error)
	AuditAll(ctx context.Context) (services.AuditSummary, error)
}

// AuditWorker audits the account touched by each ledger event, and every
// account on a fixed interval as a backstop for lost events.
type AuditWorker struct {
	auditor  Auditor
	interval time.Duration
	logger   *log.Logger

	processed  int64
	mismatches int64
}

func NewAuditWorker(auditor Auditor, interval time.Duration, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		auditor:  auditor,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerEvent audits the event's account. Store failures are returned
// so the message is retried; an account that no longer resolves for the
// owner is logged and dropped.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	w.logger.DebugContext(ctx, "Processing ledger event",
		log.FieldEvent, event.Type,
		"event_id", event.ID,
		log.FieldOwner, event.Owner,
		log.FieldAccountID, event.AccountID)

	result, err := w.auditor.AuditAccount(ctx, event.Owner, event.AccountID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Ledger event for unknown account",
			log.FieldEvent, event.Type,
			log.FieldOwner, event.Owner,
			log.FieldAccountID, event.AccountID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("audit account %d: %w", event.AccountID, err)
	}

	atomic.AddInt64(&w.processed, 1)
	if !result.Consistent() {
		atomic.AddInt64(&w.mismatches, 1)
	}
	return nil
}

// AuditAll runs one full audit and logs its outcome.
func (w *AuditWorker) AuditAll(ctx context.Context) error {
	start := time.Now()
	sum, err := w.auditor.AuditAll(ctx)
	atomic.AddInt64(&w.processed, int64(sum.Accounts))
	atomic.AddInt64(&w.mismatches, int64(sum.Mismatches))
	if err != nil {
		return fmt.Errorf("full audit: %w", err)
	}
	w.logger.InfoContext(ctx, "Full audit finished",
		"accounts", sum.Accounts,
		"mismatches", sum.Mismatches,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// RunPeriodic audits everything once at start and then every interval until
// ctx is done. Failed runs are logged and retried on the next tick.
func (w *AuditWorker) RunPeriodic(ctx context.Context) error {
	if err := w.AuditAll(ctx); err != nil && ctx.Err() == nil {
		w.logger.LogError(ctx, "Startup audit failed", err, log.OpAudit, nil)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.AuditAll(ctx); err != nil && ctx.Err() == nil {
				w.logger.LogError(ctx, "Periodic audit failed", err, log.OpAudit, nil)
			}
		}
	}
}

// Stats are the accounts audited and the mismatches found so far.
type Stats struct {
	Processed  int64
	Mismatches int64
}

func (w *AuditWorker) Stats() Stats {
	return Stats{
		Processed:  atomic.LoadInt64(&w.processed),
		Mismatches: atomic.LoadInt64(&w.mismatches),
	}
}
