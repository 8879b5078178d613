package core

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// TransactionFilter narrows a transaction listing. Zero values mean "any".
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	Direction  Direction
	Search     string // case-insensitive substring of the description
	From       Date   // inclusive
	To         Date   // inclusive
}

// Page is an offset window over an ordered listing.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type TransactionPage struct {
	Items  []Transaction
	Total  int
	Limit  int
	Offset int
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID int64
	Name       string
	Amount     Money
	Count      int
}

// MonthlyTotals summarizes one calendar month.
type MonthlyTotals struct {
	Year         int
	Month        int // 1-12
	Income       Money
	Expense      Money
	Net          Money
	SavingsRate  float64 // percent of income kept; 0 when there is no income
	IncomeCount  int
	ExpenseCount int
}

// TrendPoint is one month of a spending trend.
type TrendPoint struct {
	Year    int
	Month   int
	Expense Money
}

// MonthAmount is one month's total inside a RangeSummary.
type MonthAmount struct {
	Year   int
	Month  int
	Amount Money
}

// RangeSummary totals one direction over an arbitrary date range.
type RangeSummary struct {
	From       Date
	To         Date
	Direction  Direction
	Total      Money
	Count      int
	Average    Money // Total / Count rounded half-up; zero when Count is 0
	Categories []CategoryAmount
	Months     []MonthAmount // months with activity, ascending
}

type Dashboard struct {
	TotalBalance       Money
	Monthly            MonthlyTotals
	CategoryBreakdown  []CategoryAmount
	RecentTransactions []Transaction
}

type BudgetStatus struct {
	Budget      Budget
	Category    string
	PeriodStart Date
	PeriodEnd   Date
	Spent       Money
	Remaining   Money
	Utilization float64 // percent of the budget spent
}

// AuditResult compares a stored balance with a replay of the ledger.
type AuditResult struct {
	AccountID        int64
	StoredBalance    Money
	ReplayedBalance  Money
	TransactionCount int
}

func (r AuditResult) Consistent() bool {
	return r.StoredBalance == r.ReplayedBalance
}
