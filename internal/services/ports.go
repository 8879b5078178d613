package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// LedgerStore is the part of the ledger store the ledger service mutates.
type LedgerStore interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, owner string, id int64) (core.Account, error)
	ListAccounts(ctx context.Context, owner string, activeOnly bool) ([]core.Account, error)
	SetAccountActive(ctx context.Context, owner string, id int64, active bool) (core.Account, error)

	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	ListCategories(ctx context.Context, owner string, dir core.Direction) ([]core.Category, error)
	SeedDefaultCategories(ctx context.Context, owner string) (int, error)

	CreateTransaction(ctx context.Context, owner string, nt core.NewTransaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, owner string, id int64, patch core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error)
	GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, owner string, f core.TransactionFilter, p core.Page) (core.TransactionPage, error)
}

// ReportStore is the read side used for dashboards, trends and budgets.
type ReportStore interface {
	ListAccounts(ctx context.Context, owner string, activeOnly bool) ([]core.Account, error)
	ListCategories(ctx context.Context, owner string, dir core.Direction) ([]core.Category, error)
	TransactionsBetween(ctx context.Context, owner string, from, to core.Date) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, owner string, n int) ([]core.Transaction, error)
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListBudgets(ctx context.Context, owner string, activeOnly bool) ([]core.Budget, error)
}

// AuditStore reads accounts with their full transaction history.
type AuditStore interface {
	AccountLedger(ctx context.Context, owner string, accountID int64) (core.Account, []core.Transaction, error)
	ListAccounts(ctx context.Context, owner string, activeOnly bool) ([]core.Account, error)
	ListOwners(ctx context.Context) ([]string, error)
}

// EventPublisher announces committed ledger changes.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// Invalidator drops derived values for an owner after a ledger change.
type Invalidator interface {
	Invalidate(owner string)
}
