package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/reconcile"
)

// Auditor checks stored balances against a replay of each account's
// transactions from its initial balance.
type Auditor struct {
	store  AuditStore
	logger *log.Logger
}

func NewAuditor(store AuditStore, logger *log.Logger) *Auditor {
	return &Auditor{store: store, logger: logger.WithComponent(log.ComponentAudit)}
}

// AuditAccount replays one account. A mismatch is logged and reported in the
// result; it is not an error.
func (a *Auditor) AuditAccount(ctx context.Context, owner string, accountID int64) (core.AuditResult, error) {
	account, txs, err := a.store.AccountLedger(ctx, owner, accountID)
	if err != nil {
		return core.AuditResult{}, err
	}

	result := core.AuditResult{
		AccountID:        account.ID,
		StoredBalance:    account.Balance,
		ReplayedBalance:  reconcile.Replay(account.InitialBalance, txs),
		TransactionCount: len(txs),
	}
	if !result.Consistent() {
		a.logger.ErrorContext(ctx, "Account balance does not match its transactions",
			log.FieldOwner, owner,
			log.FieldAccountID, account.ID,
			log.FieldBalance, result.StoredBalance.String(),
			"replayed_balance", result.ReplayedBalance.String(),
			"transactions", result.TransactionCount)
	}
	return result, nil
}

// AuditOwner audits every account of an owner.
func (a *Auditor) AuditOwner(ctx context.Context, owner string) ([]core.AuditResult, error) {
	accounts, err := a.store.ListAccounts(ctx, owner, false)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	results := make([]core.AuditResult, 0, len(accounts))
	for _, acc := range accounts {
		r, err := a.AuditAccount(ctx, owner, acc.ID)
		if err != nil {
			return nil, fmt.Errorf("audit account %d: %w", acc.ID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// AuditSummary counts the outcome of a full audit run.
type AuditSummary struct {
	Owners     int
	Accounts   int
	Mismatches int
}

// AuditAll audits every owner. A failing owner is logged and skipped so one
// bad ledger does not hide the rest.
func (a *Auditor) AuditAll(ctx context.Context) (AuditSummary, error) {
	owners, err := a.store.ListOwners(ctx)
	if err != nil {
		return AuditSummary{}, fmt.Errorf("list owners: %w", err)
	}

	var sum AuditSummary
	var errs []error
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		results, err := a.AuditOwner(ctx, owner)
		if err != nil {
			a.logger.LogError(ctx, "Owner audit failed", err, log.OpAudit, log.NewFields().WithLedger(owner, 0, 0))
			errs = append(errs, err)
			continue
		}
		sum.Owners++
		sum.Accounts += len(results)
		for _, r := range results {
			if !r.Consistent() {
				sum.Mismatches++
			}
		}
	}

	a.logger.InfoContext(ctx, "Ledger audit completed",
		"owners", sum.Owners,
		"accounts", sum.Accounts,
		"mismatches", sum.Mismatches)

	return sum, errors.Join(errs...)
}
