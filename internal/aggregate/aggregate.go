// Package aggregate derives read-side summaries from accounts and transactions.
//
// Every function is pure and total: empty input yields zero values, never an error.
package aggregate

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// TotalBalance sums the balances of active accounts.
func TotalBalance(accounts []core.Account) core.Money {
	var total core.Money
	for _, a := range accounts {
		if a.Active {
			total = total.Add(a.Balance)
		}
	}
	return total
}

// inRange reports whether d falls in [from, to]; a zero bound is open.
func inRange(d, from, to core.Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// MonthlyTotals sums income and expense for transactions dated inside the month.
func MonthlyTotals(txs []core.Transaction, year, month int) core.MonthlyTotals {
	first, last := core.MonthBounds(year, month)
	out := core.MonthlyTotals{Year: year, Month: month}
	for _, t := range txs {
		if !inRange(t.Date, first, last) {
			continue
		}
		switch t.Direction {
		case core.Income:
			out.Income = out.Income.Add(t.Amount)
			out.IncomeCount++
		case core.Expense:
			out.Expense = out.Expense.Add(t.Amount)
			out.ExpenseCount++
		}
	}
	out.Net = out.Income.Sub(out.Expense)
	// No income means no meaningful rate; report 0 instead of dividing by zero.
	out.SavingsRate = core.Percent(out.Net, out.Income)
	return out
}

// CategoryBreakdown groups transactions of one direction inside [from, to] by
// category. Results are sorted by amount descending, then by name.
func CategoryBreakdown(txs []core.Transaction, names map[int64]string, dir core.Direction, from, to core.Date) []core.CategoryAmount {
	byID := make(map[int64]*core.CategoryAmount)
	for _, t := range txs {
		if t.Direction != dir || !inRange(t.Date, from, to) {
			continue
		}
		ca, ok := byID[t.CategoryID]
		if !ok {
			ca = &core.CategoryAmount{CategoryID: t.CategoryID, Name: names[t.CategoryID]}
			byID[t.CategoryID] = ca
		}
		ca.Amount = ca.Amount.Add(t.Amount)
		ca.Count++
	}

	out := make([]core.CategoryAmount, 0, len(byID))
	for _, ca := range byID {
		out = append(out, *ca)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// Summarize totals transactions of one direction inside [from, to] with the
// average amount, a per-category breakdown and per-month totals.
func Summarize(txs []core.Transaction, names map[int64]string, dir core.Direction, from, to core.Date) core.RangeSummary {
	out := core.RangeSummary{From: from, To: to, Direction: dir}
	byMonth := make(map[monthKey]core.Money)
	for _, t := range txs {
		if t.Direction != dir || !inRange(t.Date, from, to) {
			continue
		}
		out.Total = out.Total.Add(t.Amount)
		out.Count++
		k := monthKey{t.Date.Year(), t.Date.Month()}
		byMonth[k] = byMonth[k].Add(t.Amount)
	}
	out.Average = core.Average(out.Total, out.Count)
	out.Categories = CategoryBreakdown(txs, names, dir, from, to)

	out.Months = make([]core.MonthAmount, 0, len(byMonth))
	for k, amount := range byMonth {
		out.Months = append(out.Months, core.MonthAmount{Year: k.year, Month: k.month, Amount: amount})
	}
	sort.Slice(out.Months, func(i, j int) bool {
		if out.Months[i].Year != out.Months[j].Year {
			return out.Months[i].Year < out.Months[j].Year
		}
		return out.Months[i].Month < out.Months[j].Month
	})
	return out
}

// PeriodBounds returns the budget period containing now. Weeks start on Monday.
func PeriodBounds(period core.BudgetPeriod, now time.Time) (core.Date, core.Date) {
	today := core.DateOf(now)
	switch period {
	case core.Weekly:
		offset := (int(today.Weekday()) + 6) % 7
		start := core.Date{Time: today.AddDate(0, 0, -offset)}
		return start, core.Date{Time: start.AddDate(0, 0, 6)}
	case core.Yearly:
		return core.NewDate(today.Year(), 1, 1), core.NewDate(today.Year(), 12, 31)
	default:
		return core.MonthBounds(today.Year(), today.Month())
	}
}

// BudgetStatus reports how much of a budget has been spent in its current period.
func BudgetStatus(b core.Budget, category string, txs []core.Transaction, now time.Time) core.BudgetStatus {
	start, end := PeriodBounds(b.Period, now)
	var spent core.Money
	for _, t := range txs {
		if t.CategoryID == b.CategoryID && t.Direction == core.Expense && inRange(t.Date, start, end) {
			spent = spent.Add(t.Amount)
		}
	}
	return core.BudgetStatus{
		Budget:      b,
		Category:    category,
		PeriodStart: start,
		PeriodEnd:   end,
		Spent:       spent,
		Remaining:   b.Amount.Sub(spent),
		Utilization: core.Percent(spent, b.Amount),
	}
}
