package http

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

type accountJSON struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Type           core.AccountType `json:"type"`
	InitialBalance core.Money       `json:"initial_balance"`
	Balance        core.Money       `json:"balance"`
	Currency       string           `json:"currency"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"created_at"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:             a.ID,
		Name:           a.Name,
		Type:           a.Type,
		InitialBalance: a.InitialBalance,
		Balance:        a.Balance,
		Currency:       a.Currency,
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
	}
}

type categoryJSON struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Type      core.Direction `json:"type"`
	Color     string         `json:"color"`
	Icon      string         `json:"icon"`
	IsDefault bool           `json:"is_default"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		Color:     c.Color,
		Icon:      c.Icon,
		IsDefault: c.IsDefault,
	}
}

type transactionJSON struct {
	ID          int64          `json:"id"`
	AccountID   int64          `json:"account_id"`
	CategoryID  int64          `json:"category_id"`
	Amount      core.Money     `json:"amount"`
	Type        core.Direction `json:"type"`
	Description string         `json:"description"`
	Date        core.Date      `json:"date"`
	Tags        []string       `json:"tags"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return transactionJSON{
		ID:          t.ID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount,
		Type:        t.Direction,
		Description: t.Description,
		Date:        t.Date,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type transactionPageJSON struct {
	Items  []transactionJSON `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type categoryAmountJSON struct {
	CategoryID int64      `json:"category_id"`
	Name       string     `json:"name"`
	Amount     core.Money `json:"amount"`
	Count      int        `json:"count"`
}

type monthlyJSON struct {
	Year         int        `json:"year"`
	Month        int        `json:"month"`
	Income       core.Money `json:"income"`
	Expense      core.Money `json:"expense"`
	Net          core.Money `json:"net"`
	SavingsRate  float64    `json:"savings_rate"`
	IncomeCount  int        `json:"income_count"`
	ExpenseCount int        `json:"expense_count"`
}

func toMonthlyJSON(m core.MonthlyTotals) monthlyJSON {
	return monthlyJSON(m)
}

type dashboardJSON struct {
	TotalBalance       core.Money           `json:"total_balance"`
	MonthlyIncome      core.Money           `json:"monthly_income"`
	MonthlyExpense     core.Money           `json:"monthly_expense"`
	Net                core.Money           `json:"net"`
	SavingsRate        float64              `json:"savings_rate"`
	CategoryBreakdown  []categoryAmountJSON `json:"category_breakdown"`
	RecentTransactions []transactionJSON    `json:"recent_transactions"`
}

func toDashboardJSON(d core.Dashboard) dashboardJSON {
	return dashboardJSON{
		TotalBalance:       d.TotalBalance,
		MonthlyIncome:      d.Monthly.Income,
		MonthlyExpense:     d.Monthly.Expense,
		Net:                d.Monthly.Net,
		SavingsRate:        d.Monthly.SavingsRate,
		CategoryBreakdown:  mapSlice(d.CategoryBreakdown, toCategoryAmountJSON),
		RecentTransactions: mapSlice(d.RecentTransactions, toTransactionJSON),
	}
}

func toCategoryAmountJSON(c core.CategoryAmount) categoryAmountJSON {
	return categoryAmountJSON(c)
}

type trendPointJSON struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Expense core.Money `json:"expense"`
}

func toTrendPointJSON(p core.TrendPoint) trendPointJSON {
	return trendPointJSON(p)
}

type rangeSummaryJSON struct {
	From              core.Date             `json:"from"`
	To                core.Date             `json:"to"`
	Type              core.Direction        `json:"type"`
	TotalAmount       core.Money            `json:"total_amount"`
	TotalCount        int                   `json:"total_count"`
	Average           core.Money            `json:"average"`
	CategoryBreakdown []categoryAmountJSON  `json:"category_breakdown"`
	MonthlyBreakdown  map[string]core.Money `json:"monthly_breakdown"` // keyed YYYY-MM
}

func toRangeSummaryJSON(r core.RangeSummary) rangeSummaryJSON {
	months := make(map[string]core.Money, len(r.Months))
	for _, m := range r.Months {
		months[fmt.Sprintf("%04d-%02d", m.Year, m.Month)] = m.Amount
	}
	return rangeSummaryJSON{
		From:              r.From,
		To:                r.To,
		Type:              r.Direction,
		TotalAmount:       r.Total,
		TotalCount:        r.Count,
		Average:           r.Average,
		CategoryBreakdown: mapSlice(r.Categories, toCategoryAmountJSON),
		MonthlyBreakdown:  months,
	}
}

type budgetJSON struct {
	ID         int64             `json:"id"`
	CategoryID int64             `json:"category_id"`
	Amount     core.Money        `json:"amount"`
	Period     core.BudgetPeriod `json:"period"`
	Active     bool              `json:"active"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount,
		Period:     b.Period,
		Active:     b.Active,
	}
}

type budgetStatusJSON struct {
	budgetJSON
	Category    string     `json:"category"`
	PeriodStart core.Date  `json:"period_start"`
	PeriodEnd   core.Date  `json:"period_end"`
	Spent       core.Money `json:"spent"`
	Remaining   core.Money `json:"remaining"`
	Utilization float64    `json:"utilization"`
}

func toBudgetStatusJSON(s core.BudgetStatus) budgetStatusJSON {
	return budgetStatusJSON{
		budgetJSON:  toBudgetJSON(s.Budget),
		Category:    s.Category,
		PeriodStart: s.PeriodStart,
		PeriodEnd:   s.PeriodEnd,
		Spent:       s.Spent,
		Remaining:   s.Remaining,
		Utilization: s.Utilization,
	}
}

type auditJSON struct {
	AccountID        int64      `json:"account_id"`
	StoredBalance    core.Money `json:"stored_balance"`
	ReplayedBalance  core.Money `json:"replayed_balance"`
	TransactionCount int        `json:"transaction_count"`
	Consistent       bool       `json:"consistent"`
}

func toAuditJSON(r core.AuditResult) auditJSON {
	return auditJSON{
		AccountID:        r.AccountID,
		StoredBalance:    r.StoredBalance,
		ReplayedBalance:  r.ReplayedBalance,
		TransactionCount: r.TransactionCount,
		Consistent:       r.Consistent(),
	}
}

// mapSlice converts every element and never returns nil, so empty lists
// encode as [] rather than null.
func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
