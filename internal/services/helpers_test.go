package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// 2024-03-18 is a Monday.
var testNow = time.Date(2024, 3, 18, 12, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"),
		storage.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type countingInvalidator struct {
	mu     sync.Mutex
	owners []string
}

func (c *countingInvalidator) Invalidate(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners = append(c.owners, owner)
}

// ledger is an owner with a checking account and the default categories.
type ledger struct {
	owner   string
	account core.Account
	food    core.Category
	salary  core.Category
}

func setupLedger(t *testing.T, svc *LedgerService, owner string, initialCents int64) ledger {
	t.Helper()
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, owner, "Checking", core.Checking, core.Money{Cents: initialCents}, "")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	cats, err := svc.ListCategories(ctx, owner, "")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	l := ledger{owner: owner, account: account}
	for _, c := range cats {
		switch c.Name {
		case "Food & Dining":
			l.food = c
		case "Salary":
			l.salary = c
		}
	}
	return l
}

func (l ledger) add(t *testing.T, svc *LedgerService, cat core.Category, cents int64, date core.Date) core.Transaction {
	t.Helper()
	tx, err := svc.CreateTransaction(context.Background(), l.owner, core.NewTransaction{
		AccountID:   l.account.ID,
		CategoryID:  cat.ID,
		Amount:      core.Money{Cents: cents},
		Direction:   cat.Type,
		Description: cat.Name,
		Date:        date,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

var errBrokerDown = errors.New("broker down")
