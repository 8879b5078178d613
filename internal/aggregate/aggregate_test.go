package aggregate

import (
	"slices"
	"testing"
	"time"

	"fintrack/internal/core"
)

func tx(cat int64, cents int64, dir core.Direction, date string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{CategoryID: cat, Amount: core.Money{Cents: cents}, Direction: dir, Date: d}
}

func TestTotalBalance(t *testing.T) {
	accounts := []core.Account{
		{Balance: core.Money{Cents: 100000}, Active: true},
		{Balance: core.Money{Cents: -25000}, Active: true, Type: core.Credit},
		{Balance: core.Money{Cents: 999999}, Active: false},
	}
	if got := TotalBalance(accounts); got.Cents != 75000 {
		t.Fatalf("TotalBalance() = %d, want 75000", got.Cents)
	}
	if got := TotalBalance(nil); !got.IsZero() {
		t.Fatalf("TotalBalance(nil) = %d", got.Cents)
	}
}

func TestMonthlyTotals(t *testing.T) {
	txs := []core.Transaction{
		tx(1, 50000, core.Income, "2024-03-05"),
		tx(2, 12000, core.Expense, "2024-03-10"),
		tx(2, 3000, core.Expense, "2024-04-01"),
	}
	got := MonthlyTotals(txs, 2024, 3)
	if got.Income.Cents != 50000 || got.Expense.Cents != 12000 || got.Net.Cents != 38000 {
		t.Fatalf("MonthlyTotals() = %+v", got)
	}
	if got.SavingsRate != 76.0 {
		t.Fatalf("SavingsRate = %v, want 76.0", got.SavingsRate)
	}
	if got.IncomeCount != 1 || got.ExpenseCount != 1 {
		t.Fatalf("counts = %d/%d", got.IncomeCount, got.ExpenseCount)
	}
}

func TestMonthlyTotalsBoundaries(t *testing.T) {
	txs := []core.Transaction{
		tx(1, 100, core.Expense, "2024-02-29"),
		tx(1, 200, core.Expense, "2024-02-01"),
		tx(1, 400, core.Expense, "2024-01-31"),
		tx(1, 800, core.Expense, "2024-03-01"),
	}
	got := MonthlyTotals(txs, 2024, 2)
	if got.Expense.Cents != 300 {
		t.Fatalf("Expense = %d, want 300", got.Expense.Cents)
	}
}

func TestMonthlyTotalsZeroIncome(t *testing.T) {
	got := MonthlyTotals([]core.Transaction{tx(1, 5000, core.Expense, "2024-03-02")}, 2024, 3)
	if got.SavingsRate != 0 {
		t.Fatalf("SavingsRate = %v, want 0", got.SavingsRate)
	}
	if got.Net.Cents != -5000 {
		t.Fatalf("Net = %d", got.Net.Cents)
	}

	empty := MonthlyTotals(nil, 2024, 3)
	if !empty.Income.IsZero() || !empty.Expense.IsZero() || empty.SavingsRate != 0 {
		t.Fatalf("empty = %+v", empty)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	names := map[int64]string{1: "Food", 2: "Travel", 3: "Salary", 4: "Books"}
	txs := []core.Transaction{
		tx(1, 1000, core.Expense, "2024-03-01"),
		tx(1, 2500, core.Expense, "2024-03-20"),
		tx(2, 3500, core.Expense, "2024-03-15"),
		tx(4, 500, core.Expense, "2024-03-15"),
		tx(3, 90000, core.Income, "2024-03-01"),
		tx(4, 7000, core.Expense, "2024-04-02"),
	}
	from, to := core.MonthBounds(2024, 3)
	got := CategoryBreakdown(txs, names, core.Expense, from, to)

	want := []core.CategoryAmount{
		{CategoryID: 1, Name: "Food", Amount: core.Money{Cents: 3500}, Count: 2},
		{CategoryID: 2, Name: "Travel", Amount: core.Money{Cents: 3500}, Count: 1},
		{CategoryID: 4, Name: "Books", Amount: core.Money{Cents: 500}, Count: 1},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("CategoryBreakdown() = %+v\nwant %+v", got, want)
	}

	if got := CategoryBreakdown(nil, names, core.Income, from, to); len(got) != 0 {
		t.Fatalf("empty breakdown = %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	names := map[int64]string{1: "Food", 2: "Travel", 3: "Salary"}
	txs := []core.Transaction{
		tx(1, 1000, core.Expense, "2024-01-31"),
		tx(2, 2500, core.Expense, "2024-03-02"),
		tx(1, 501, core.Expense, "2024-03-20"),
		tx(3, 90000, core.Income, "2024-02-01"),
		tx(1, 7000, core.Expense, "2024-04-01"),
	}
	from, _ := core.ParseDate("2024-01-01")
	to, _ := core.ParseDate("2024-03-31")

	got := Summarize(txs, names, core.Expense, from, to)
	if got.Total.Cents != 4001 || got.Count != 3 {
		t.Fatalf("Total = %s, Count = %d; want 40.01, 3", got.Total, got.Count)
	}
	if got.Average.Cents != 1334 {
		t.Errorf("Average = %s, want 13.34", got.Average)
	}
	wantMonths := []core.MonthAmount{
		{Year: 2024, Month: 1, Amount: core.Money{Cents: 1000}},
		{Year: 2024, Month: 3, Amount: core.Money{Cents: 3001}},
	}
	if !slices.Equal(got.Months, wantMonths) {
		t.Errorf("Months = %+v, want %+v", got.Months, wantMonths)
	}
	if len(got.Categories) != 2 || got.Categories[0].Name != "Travel" || got.Categories[1].Count != 2 {
		t.Errorf("Categories = %+v", got.Categories)
	}

	t.Run("no transactions", func(t *testing.T) {
		empty := Summarize(nil, names, core.Expense, from, to)
		if !empty.Total.IsZero() || empty.Count != 0 || !empty.Average.IsZero() {
			t.Errorf("empty = %+v", empty)
		}
		if empty.Months == nil || len(empty.Months) != 0 || len(empty.Categories) != 0 {
			t.Errorf("empty breakdowns = %+v, %+v", empty.Months, empty.Categories)
		}
	})
}

func TestSpendingTrend(t *testing.T) {
	txs := []core.Transaction{
		tx(1, 1000, core.Expense, "2023-12-15"),
		tx(1, 2000, core.Expense, "2024-02-10"),
		tx(1, 500, core.Expense, "2024-02-28"),
		tx(2, 99999, core.Income, "2024-02-01"),
		tx(1, 4000, core.Expense, "2023-10-01"), // outside the window
	}
	seq := SpendingTrend(txs, core.NewDate(2024, 3, 18), 4)

	got := slices.Collect(seq)
	want := []core.TrendPoint{
		{Year: 2023, Month: 12, Expense: core.Money{Cents: 1000}},
		{Year: 2024, Month: 1},
		{Year: 2024, Month: 2, Expense: core.Money{Cents: 2500}},
		{Year: 2024, Month: 3},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("SpendingTrend() = %+v\nwant %+v", got, want)
	}

	// Ranging again yields the same sequence.
	if again := slices.Collect(seq); !slices.Equal(again, want) {
		t.Fatalf("second pass = %+v", again)
	}

	// Early exit stops the sequence.
	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("early exit count = %d", count)
	}
}

func TestSpendingTrendEmpty(t *testing.T) {
	got := slices.Collect(SpendingTrend(nil, core.NewDate(2024, 1, 5), 3))
	if len(got) != 3 {
		t.Fatalf("expected 3 zero months, got %d", len(got))
	}
	for _, p := range got {
		if !p.Expense.IsZero() {
			t.Fatalf("expected zero month, got %+v", p)
		}
	}
	if got[0].Year != 2023 || got[0].Month != 11 {
		t.Fatalf("first month = %d-%d", got[0].Year, got[0].Month)
	}
	if n := len(slices.Collect(SpendingTrend(nil, core.NewDate(2024, 1, 5), 0))); n != 0 {
		t.Fatalf("n=0 yielded %d points", n)
	}
}

func TestPeriodBounds(t *testing.T) {
	// 2024-03-14 is a Thursday.
	now := time.Date(2024, 3, 14, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		period     core.BudgetPeriod
		start, end string
	}{
		{core.Weekly, "2024-03-11", "2024-03-17"},
		{core.Monthly, "2024-03-01", "2024-03-31"},
		{core.Yearly, "2024-01-01", "2024-12-31"},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end := PeriodBounds(tt.period, now)
			if start.String() != tt.start || end.String() != tt.end {
				t.Errorf("PeriodBounds() = %s..%s, want %s..%s", start, end, tt.start, tt.end)
			}
		})
	}
}

func TestBudgetStatus(t *testing.T) {
	b := core.Budget{CategoryID: 1, Amount: core.Money{Cents: 40000}, Period: core.Monthly}
	txs := []core.Transaction{
		tx(1, 10000, core.Expense, "2024-03-02"),
		tx(1, 20000, core.Expense, "2024-03-20"),
		tx(1, 50000, core.Expense, "2024-02-20"),
		tx(2, 5000, core.Expense, "2024-03-05"),
	}
	got := BudgetStatus(b, "Food", txs, time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC))
	if got.Spent.Cents != 30000 || got.Remaining.Cents != 10000 {
		t.Fatalf("spent/remaining = %d/%d", got.Spent.Cents, got.Remaining.Cents)
	}
	if got.Utilization != 75 {
		t.Fatalf("Utilization = %v", got.Utilization)
	}
	if got.Category != "Food" {
		t.Fatalf("Category = %q", got.Category)
	}
}
