package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 36
)

// ReportService computes dashboards, summaries, trends and budget status from
// the ledger. Dashboards and trends are cached per owner until the owner's
// ledger changes or the cache TTL passes.
type ReportService struct {
	store      ReportStore
	dashboards cache.Cache[core.Dashboard]
	trends     cache.Cache[[]core.TrendPoint]
	recent     int
	now        func() time.Time
	logger     *log.Logger
}

type ReportOption func(*ReportService)

func WithReportClock(now func() time.Time) ReportOption {
	return func(s *ReportService) { s.now = now }
}

func WithDashboardCache(c cache.Cache[core.Dashboard]) ReportOption {
	return func(s *ReportService) { s.dashboards = c }
}

func WithTrendCache(c cache.Cache[[]core.TrendPoint]) ReportOption {
	return func(s *ReportService) { s.trends = c }
}

// NewReportService returns a service that lists recent transactions on the
// dashboard. Without cache options nothing is cached.
func NewReportService(store ReportStore, recent int, logger *log.Logger, opts ...ReportOption) *ReportService {
	s := &ReportService{
		store:      store,
		dashboards: cache.Noop[core.Dashboard]{},
		trends:     cache.Noop[[]core.TrendPoint]{},
		recent:     recent,
		now:        time.Now,
		logger:     logger.WithComponent(log.ComponentReports),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the owner's cached reports.
func (s *ReportService) Invalidate(owner string) {
	s.dashboards.InvalidateOwner(owner)
	s.trends.InvalidateOwner(owner)
}

func (s *ReportService) today() core.Date {
	return core.DateOf(s.now())
}

// Dashboard gathers balances, the current month's totals and breakdown, and
// the most recent transactions. The store reads run concurrently.
func (s *ReportService) Dashboard(ctx context.Context, owner string) (core.Dashboard, error) {
	today := s.today()
	key := "dashboard:" + today.Format("2006-01")
	if d, ok := s.dashboards.Get(owner, key); ok {
		return d, nil
	}
	gen := s.dashboards.Generation(owner)

	first, last := core.MonthBounds(today.Year(), today.Month())

	var (
		accounts   []core.Account
		monthTxs   []core.Transaction
		recent     []core.Transaction
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gctx, owner, true)
		return err
	})
	g.Go(func() error {
		var err error
		monthTxs, err = s.store.TransactionsBetween(gctx, owner, first, last)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.store.RecentTransactions(gctx, owner, s.recent)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategories(gctx, owner, core.Expense)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.LogError(ctx, "Dashboard failed", err, log.OpRead, log.NewFields().WithLedger(owner, 0, 0))
		return core.Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}

	d := core.Dashboard{
		TotalBalance:       aggregate.TotalBalance(accounts),
		Monthly:            aggregate.MonthlyTotals(monthTxs, today.Year(), today.Month()),
		CategoryBreakdown:  aggregate.CategoryBreakdown(monthTxs, categoryNames(categories), core.Expense, first, last),
		RecentTransactions: recent,
	}
	s.dashboards.Set(owner, key, gen, d)
	return d, nil
}

// SpendingTrend returns total expense for each of the last months months,
// oldest first, including months with no expenses.
func (s *ReportService) SpendingTrend(ctx context.Context, owner string, months int) ([]core.TrendPoint, error) {
	if months == 0 {
		months = DefaultTrendMonths
	}
	if months < 1 || months > MaxTrendMonths {
		return nil, &core.ValidationError{Field: "months", Reason: fmt.Sprintf("must be between 1 and %d", MaxTrendMonths)}
	}

	today := s.today()
	key := fmt.Sprintf("trend:%d:%s", months, today.Format("2006-01"))
	if points, ok := s.trends.Get(owner, key); ok {
		return points, nil
	}
	gen := s.trends.Generation(owner)

	from := core.Date{Time: core.NewDate(today.Year(), today.Month(), 1).AddDate(0, -(months - 1), 0)}
	_, to := core.MonthBounds(today.Year(), today.Month())
	txs, err := s.store.TransactionsBetween(ctx, owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("load trend transactions: %w", err)
	}

	points := slices.Collect(aggregate.SpendingTrend(txs, today, months))
	s.trends.Set(owner, key, gen, points)
	return points, nil
}

// MonthlySummary returns income, expense, net and savings rate for one month.
func (s *ReportService) MonthlySummary(ctx context.Context, owner string, year, month int) (core.MonthlyTotals, error) {
	if month < 1 || month > 12 {
		return core.MonthlyTotals{}, core.Invalid("month", core.ErrInvalidMonth)
	}
	if year < 1900 || year > 9999 {
		return core.MonthlyTotals{}, &core.ValidationError{Field: "year", Reason: "out of range"}
	}

	first, last := core.MonthBounds(year, month)
	txs, err := s.store.TransactionsBetween(ctx, owner, first, last)
	if err != nil {
		return core.MonthlyTotals{}, fmt.Errorf("load monthly transactions: %w", err)
	}
	return aggregate.MonthlyTotals(txs, year, month), nil
}

// CategoryBreakdown sums one direction per category over [from, to]. Zero
// bounds default to the current month.
func (s *ReportService) CategoryBreakdown(ctx context.Context, owner string, dir core.Direction, from, to core.Date) ([]core.CategoryAmount, error) {
	if dir == "" {
		dir = core.Expense
	}
	if !dir.Valid() {
		return nil, core.Invalid("type", core.ErrInvalidDirection)
	}
	from, to, err := s.window(from, to)
	if err != nil {
		return nil, err
	}

	txs, names, err := s.loadWindow(ctx, owner, dir, from, to)
	if err != nil {
		return nil, fmt.Errorf("load category breakdown: %w", err)
	}
	return aggregate.CategoryBreakdown(txs, names, dir, from, to), nil
}

// RangeSummary totals one direction over [from, to] with the average amount
// per transaction and per-category and per-month breakdowns. Zero bounds
// default to the current month.
func (s *ReportService) RangeSummary(ctx context.Context, owner string, dir core.Direction, from, to core.Date) (core.RangeSummary, error) {
	if dir == "" {
		dir = core.Expense
	}
	if !dir.Valid() {
		return core.RangeSummary{}, core.Invalid("type", core.ErrInvalidDirection)
	}
	from, to, err := s.window(from, to)
	if err != nil {
		return core.RangeSummary{}, err
	}

	txs, names, err := s.loadWindow(ctx, owner, dir, from, to)
	if err != nil {
		return core.RangeSummary{}, fmt.Errorf("load range summary: %w", err)
	}
	return aggregate.Summarize(txs, names, dir, from, to), nil
}

func (s *ReportService) window(from, to core.Date) (core.Date, core.Date, error) {
	if from.IsZero() || to.IsZero() {
		today := s.today()
		first, last := core.MonthBounds(today.Year(), today.Month())
		if from.IsZero() {
			from = first
		}
		if to.IsZero() {
			to = last
		}
	}
	if from.After(to) {
		return from, to, &core.ValidationError{Field: "from", Reason: "must not be after to"}
	}
	return from, to, nil
}

// loadWindow reads the transactions in [from, to] and the names of the
// owner's dir categories concurrently.
func (s *ReportService) loadWindow(ctx context.Context, owner string, dir core.Direction, from, to core.Date) ([]core.Transaction, map[int64]string, error) {
	var (
		txs        []core.Transaction
		categories []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.TransactionsBetween(gctx, owner, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategories(gctx, owner, dir)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, categoryNames(categories), nil
}

// SetBudget creates or replaces the budget of an expense category.
func (s *ReportService) SetBudget(ctx context.Context, owner string, categoryID int64, amount core.Money, period core.BudgetPeriod) (core.Budget, error) {
	if period == "" {
		period = core.Monthly
	}
	b, err := s.store.UpsertBudget(ctx, core.Budget{
		Owner:      owner,
		CategoryID: categoryID,
		Amount:     amount,
		Period:     period,
		Active:     true,
	})
	if err != nil {
		return core.Budget{}, err
	}
	s.Invalidate(owner)

	s.logger.InfoContext(ctx, "Budget set",
		log.FieldOwner, owner,
		log.FieldCategoryID, categoryID,
		log.FieldAmount, amount.String(),
		"period", period)
	return b, nil
}

// BudgetStatuses reports spending against every active budget in its
// current period.
func (s *ReportService) BudgetStatuses(ctx context.Context, owner string) ([]core.BudgetStatus, error) {
	budgets, err := s.store.ListBudgets(ctx, owner, true)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return []core.BudgetStatus{}, nil
	}

	now := s.now()
	var from, to core.Date
	for _, b := range budgets {
		start, end := aggregate.PeriodBounds(b.Period, now)
		if from.IsZero() || start.Before(from) {
			from = start
		}
		if to.IsZero() || end.After(to) {
			to = end
		}
	}

	txs, err := s.store.TransactionsBetween(ctx, owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("load budget transactions: %w", err)
	}
	categories, err := s.store.ListCategories(ctx, owner, core.Expense)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := categoryNames(categories)

	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		statuses = append(statuses, aggregate.BudgetStatus(b, names[b.CategoryID], txs, now))
	}
	return statuses, nil
}

func categoryNames(categories []core.Category) map[int64]string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}
