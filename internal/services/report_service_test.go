package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

func newReportFixture(t *testing.T) (*LedgerService, *ReportService) {
	t.Helper()
	repo := newTestRepo(t)

	dashboards, err := cache.New[core.Dashboard](100, time.Minute)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(dashboards.Close)
	trends, err := cache.New[[]core.TrendPoint](100, time.Minute)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(trends.Close)

	reports := NewReportService(repo, 5, testLogger(),
		WithReportClock(func() time.Time { return testNow }),
		WithDashboardCache(dashboards),
		WithTrendCache(trends))
	ledgerSvc := NewLedgerService(repo, nil, reports, testLogger())
	return ledgerSvc, reports
}

func TestReportService_MonthlySummary(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports := newReportFixture(t)
	l := setupLedger(t, ledgerSvc, "alice", 0)

	l.add(t, ledgerSvc, l.salary, 50000, core.NewDate(2024, 3, 1))
	l.add(t, ledgerSvc, l.food, 12000, core.NewDate(2024, 3, 31))
	l.add(t, ledgerSvc, l.food, 999, core.NewDate(2024, 4, 1))

	got, err := reports.MonthlySummary(ctx, "alice", 2024, 3)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if got.Income.Cents != 50000 || got.Expense.Cents != 12000 || got.Net.Cents != 38000 {
		t.Errorf("totals = %+v", got)
	}
	if got.SavingsRate != 76.0 {
		t.Errorf("SavingsRate = %v, want 76.0", got.SavingsRate)
	}

	if _, err := reports.MonthlySummary(ctx, "alice", 2024, 13); !errors.Is(err, core.ErrValidation) {
		t.Errorf("month 13: err = %v, want validation error", err)
	}
}

func TestReportService_Dashboard(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports := newReportFixture(t)
	l := setupLedger(t, ledgerSvc, "alice", 100000)

	l.add(t, ledgerSvc, l.salary, 50000, core.NewDate(2024, 3, 1))
	l.add(t, ledgerSvc, l.food, 12000, core.NewDate(2024, 3, 10))
	l.add(t, ledgerSvc, l.food, 3000, core.NewDate(2024, 2, 10))

	d, err := reports.Dashboard(ctx, "alice")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TotalBalance.Cents != 135000 {
		t.Errorf("TotalBalance = %s, want 1350.00", d.TotalBalance)
	}
	if d.Monthly.Income.Cents != 50000 || d.Monthly.Expense.Cents != 12000 || d.Monthly.SavingsRate != 76 {
		t.Errorf("Monthly = %+v", d.Monthly)
	}
	if len(d.CategoryBreakdown) != 1 || d.CategoryBreakdown[0].Name != "Food & Dining" || d.CategoryBreakdown[0].Amount.Cents != 12000 {
		t.Errorf("CategoryBreakdown = %+v", d.CategoryBreakdown)
	}
	if len(d.RecentTransactions) != 3 {
		t.Errorf("RecentTransactions = %d, want 3", len(d.RecentTransactions))
	}

	t.Run("cached until the ledger changes", func(t *testing.T) {
		l.add(t, ledgerSvc, l.food, 1000, core.NewDate(2024, 3, 11))

		d, err := reports.Dashboard(ctx, "alice")
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if d.Monthly.Expense.Cents != 13000 {
			t.Errorf("Expense = %s, want 130.00 after invalidation", d.Monthly.Expense)
		}
	})

	t.Run("inactive accounts excluded from total", func(t *testing.T) {
		if _, err := ledgerSvc.SetAccountActive(ctx, "alice", l.account.ID, false); err != nil {
			t.Fatalf("SetAccountActive: %v", err)
		}
		d, err := reports.Dashboard(ctx, "alice")
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if !d.TotalBalance.IsZero() {
			t.Errorf("TotalBalance = %s, want 0", d.TotalBalance)
		}
	})
}

func TestReportService_EmptyDashboard(t *testing.T) {
	_, reports := newReportFixture(t)

	d, err := reports.Dashboard(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !d.TotalBalance.IsZero() || d.Monthly.SavingsRate != 0 || len(d.CategoryBreakdown) != 0 || len(d.RecentTransactions) != 0 {
		t.Errorf("dashboard = %+v", d)
	}
}

func TestReportService_SpendingTrend(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports := newReportFixture(t)
	l := setupLedger(t, ledgerSvc, "alice", 0)

	l.add(t, ledgerSvc, l.food, 1000, core.NewDate(2024, 1, 15))
	l.add(t, ledgerSvc, l.food, 2000, core.NewDate(2024, 3, 2))
	l.add(t, ledgerSvc, l.food, 4000, core.NewDate(2023, 12, 31))
	l.add(t, ledgerSvc, l.salary, 9000, core.NewDate(2024, 2, 1))

	points, err := reports.SpendingTrend(ctx, "alice", 3)
	if err != nil {
		t.Fatalf("SpendingTrend: %v", err)
	}
	want := []core.TrendPoint{
		{Year: 2024, Month: 1, Expense: core.Money{Cents: 1000}},
		{Year: 2024, Month: 2},
		{Year: 2024, Month: 3, Expense: core.Money{Cents: 2000}},
	}
	if len(points) != len(want) {
		t.Fatalf("points = %+v", points)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}

	def, err := reports.SpendingTrend(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("SpendingTrend default: %v", err)
	}
	if len(def) != DefaultTrendMonths {
		t.Errorf("default trend = %d points", len(def))
	}

	if _, err := reports.SpendingTrend(ctx, "alice", MaxTrendMonths+1); !errors.Is(err, core.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestReportService_CategoryBreakdown(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports := newReportFixture(t)
	l := setupLedger(t, ledgerSvc, "alice", 0)

	l.add(t, ledgerSvc, l.food, 1000, core.NewDate(2024, 3, 5))
	l.add(t, ledgerSvc, l.food, 500, core.NewDate(2024, 3, 6))
	l.add(t, ledgerSvc, l.salary, 9000, core.NewDate(2024, 3, 1))

	got, err := reports.CategoryBreakdown(ctx, "alice", core.Expense, core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("CategoryBreakdown: %v", err)
	}
	if len(got) != 1 || got[0].Amount.Cents != 1500 || got[0].Count != 2 {
		t.Errorf("breakdown = %+v", got)
	}

	income, err := reports.CategoryBreakdown(ctx, "alice", core.Income, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("CategoryBreakdown income: %v", err)
	}
	if len(income) != 1 || income[0].Name != "Salary" {
		t.Errorf("income breakdown = %+v", income)
	}

	if _, err := reports.CategoryBreakdown(ctx, "alice", core.Expense, core.NewDate(2024, 3, 2), core.NewDate(2024, 3, 1)); !errors.Is(err, core.ErrValidation) {
		t.Errorf("inverted range: err = %v", err)
	}
}

func TestReportService_RangeSummary(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports := newReportFixture(t)
	l := setupLedger(t, ledgerSvc, "alice", 0)

	l.add(t, ledgerSvc, l.food, 1000, core.NewDate(2024, 1, 15))
	l.add(t, ledgerSvc, l.food, 2001, core.NewDate(2024, 3, 5))
	l.add(t, ledgerSvc, l.salary, 9000, core.NewDate(2024, 2, 1))

	got, err := reports.RangeSummary(ctx, "alice", "", core.NewDate(2024, 1, 1), core.NewDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("RangeSummary: %v", err)
	}
	if got.Direction != core.Expense || got.Total.Cents != 3001 || got.Count != 2 || got.Average.Cents != 1501 {
		t.Errorf("summary = %+v", got)
	}
	if len(got.Months) != 2 || got.Months[0].Month != 1 || got.Months[1].Amount.Cents != 2001 {
		t.Errorf("Months = %+v", got.Months)
	}
	if len(got.Categories) != 1 || got.Categories[0].Name != "Food & Dining" {
		t.Errorf("Categories = %+v", got.Categories)
	}

	t.Run("defaults to the current month", func(t *testing.T) {
		got, err := reports.RangeSummary(ctx, "alice", core.Expense, core.Date{}, core.Date{})
		if err != nil {
			t.Fatalf("RangeSummary: %v", err)
		}
		if got.From.String() != "2024-03-01" || got.To.String() != "2024-03-31" || got.Total.Cents != 2001 {
			t.Errorf("summary = %+v", got)
		}
	})

	t.Run("no transactions", func(t *testing.T) {
		got, err := reports.RangeSummary(ctx, "bob", core.Expense, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
		if err != nil {
			t.Fatalf("RangeSummary: %v", err)
		}
		if got.Count != 0 || !got.Average.IsZero() || len(got.Months) != 0 {
			t.Errorf("summary = %+v", got)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		if _, err := reports.RangeSummary(ctx, "alice", "transfer", core.Date{}, core.Date{}); !errors.Is(err, core.ErrValidation) {
			t.Errorf("bad direction: err = %v", err)
		}
		if _, err := reports.RangeSummary(ctx, "alice", core.Expense, core.NewDate(2024, 3, 2), core.NewDate(2024, 3, 1)); !errors.Is(err, core.ErrValidation) {
			t.Errorf("inverted range: err = %v", err)
		}
	})
}

// pausingStore holds the first result of one read method until release is
// closed, so a write can commit while a report is still being computed.
type pausingStore struct {
	ReportStore
	method  string
	once    sync.Once
	paused  chan struct{}
	release chan struct{}
}

func newPausingStore(inner ReportStore, method string) *pausingStore {
	return &pausingStore{
		ReportStore: inner,
		method:      method,
		paused:      make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (p *pausingStore) pause(method string) {
	if method != p.method {
		return
	}
	p.once.Do(func() {
		close(p.paused)
		<-p.release
	})
}

func (p *pausingStore) ListAccounts(ctx context.Context, owner string, activeOnly bool) ([]core.Account, error) {
	accounts, err := p.ReportStore.ListAccounts(ctx, owner, activeOnly)
	p.pause("ListAccounts")
	return accounts, err
}

func (p *pausingStore) TransactionsBetween(ctx context.Context, owner string, from, to core.Date) ([]core.Transaction, error) {
	txs, err := p.ReportStore.TransactionsBetween(ctx, owner, from, to)
	p.pause("TransactionsBetween")
	return txs, err
}

func TestReportService_WriteDuringReportIsNotCached(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		method string
		read   func(*ReportService) (int64, error)
		stale  int64
		fresh  int64
	}{
		{
			name:   "dashboard",
			method: "ListAccounts",
			read: func(rs *ReportService) (int64, error) {
				d, err := rs.Dashboard(ctx, "alice")
				return d.TotalBalance.Cents, err
			},
			stale: 100000,
			fresh: 95000,
		},
		{
			name:   "trend",
			method: "TransactionsBetween",
			read: func(rs *ReportService) (int64, error) {
				points, err := rs.SpendingTrend(ctx, "alice", 1)
				if err != nil || len(points) != 1 {
					return 0, fmt.Errorf("points = %+v: %w", points, err)
				}
				return points[0].Expense.Cents, nil
			},
			stale: 0,
			fresh: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			dashboards, err := cache.New[core.Dashboard](100, time.Minute)
			if err != nil {
				t.Fatalf("cache.New: %v", err)
			}
			t.Cleanup(dashboards.Close)
			trends, err := cache.New[[]core.TrendPoint](100, time.Minute)
			if err != nil {
				t.Fatalf("cache.New: %v", err)
			}
			t.Cleanup(trends.Close)

			store := newPausingStore(repo, tt.method)
			reports := NewReportService(store, 5, testLogger(),
				WithReportClock(func() time.Time { return testNow }),
				WithDashboardCache(dashboards),
				WithTrendCache(trends))
			ledgerSvc := NewLedgerService(repo, nil, reports, testLogger())
			l := setupLedger(t, ledgerSvc, "alice", 100000)

			type result struct {
				value int64
				err   error
			}
			done := make(chan result, 1)
			go func() {
				v, err := tt.read(reports)
				done <- result{v, err}
			}()

			select {
			case <-store.paused:
			case <-time.After(5 * time.Second):
				t.Fatal("report never reached the store")
			}
			l.add(t, ledgerSvc, l.food, 5000, core.NewDate(2024, 3, 18))
			close(store.release)

			first := <-done
			if first.err != nil {
				t.Fatalf("first read: %v", first.err)
			}
			if first.value != tt.stale {
				t.Fatalf("first read = %d, want the pre-write value %d", first.value, tt.stale)
			}

			got, err := tt.read(reports)
			if err != nil {
				t.Fatalf("second read: %v", err)
			}
			if got != tt.fresh {
				t.Errorf("second read = %d, want %d; a result computed before the write was cached", got, tt.fresh)
			}
		})
	}
}

func TestReportService_Budgets(t *testing.T) {
	ctx := context.Background()
	ledgerSvc, reports := newReportFixture(t)
	l := setupLedger(t, ledgerSvc, "alice", 0)

	l.add(t, ledgerSvc, l.food, 3000, core.NewDate(2024, 3, 18))
	l.add(t, ledgerSvc, l.food, 5000, core.NewDate(2024, 3, 17)) // previous week

	if _, err := reports.SetBudget(ctx, "alice", l.food.ID, core.Money{Cents: 10000}, core.Weekly); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}

	statuses, err := reports.BudgetStatuses(ctx, "alice")
	if err != nil {
		t.Fatalf("BudgetStatuses: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("statuses = %+v", statuses)
	}
	s := statuses[0]
	if s.Category != "Food & Dining" || s.Spent.Cents != 3000 || s.Remaining.Cents != 7000 || s.Utilization != 30 {
		t.Errorf("status = %+v", s)
	}
	if s.PeriodStart.String() != "2024-03-18" || s.PeriodEnd.String() != "2024-03-24" {
		t.Errorf("period = %s..%s", s.PeriodStart, s.PeriodEnd)
	}

	if _, err := reports.SetBudget(ctx, "alice", l.salary.ID, core.Money{Cents: 100}, core.Monthly); !errors.Is(err, core.ErrValidation) {
		t.Errorf("income budget: err = %v, want validation error", err)
	}

	empty, err := reports.BudgetStatuses(ctx, "bob")
	if err != nil || len(empty) != 0 {
		t.Errorf("bob statuses = %+v, %v", empty, err)
	}
}
