package reconcile

import (
	"testing"

	"fintrack/internal/core"
)

func money(c int64) core.Money { return core.Money{Cents: c} }

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		amount  int64
		dir     core.Direction
		want    int64
	}{
		{"income adds", 1000, 250, core.Income, 1250},
		{"expense subtracts", 1000, 250, core.Expense, 750},
		{"expense may go negative", 100, 250, core.Expense, -150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(money(tt.balance), money(tt.amount), tt.dir)
			if got.Cents != tt.want {
				t.Errorf("Apply() = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestReverseUndoesApply(t *testing.T) {
	balances := []int64{0, 1000, -5000, 123456789}
	amounts := []int64{1, 99, 10000, 1 << 40}
	for _, b := range balances {
		for _, a := range amounts {
			for _, d := range []core.Direction{core.Income, core.Expense} {
				got := Reverse(Apply(money(b), money(a), d), money(a), d)
				if got.Cents != b {
					t.Fatalf("Reverse(Apply(%d, %d, %s)) = %d", b, a, d, got.Cents)
				}
			}
		}
	}
}

func TestReapply(t *testing.T) {
	// 100 expense becomes 40 income: B + 100 + 40.
	got := Reapply(money(50000), money(10000), core.Expense, money(4000), core.Income)
	if got.Cents != 50000+10000+4000 {
		t.Fatalf("Reapply() = %d", got.Cents)
	}

	// Same direction, smaller amount.
	got = Reapply(money(50000), money(10000), core.Expense, money(4000), core.Expense)
	if got.Cents != 50000+10000-4000 {
		t.Fatalf("Reapply() = %d", got.Cents)
	}

	// Unchanged transaction leaves the balance alone.
	got = Reapply(money(777), money(300), core.Income, money(300), core.Income)
	if got.Cents != 777 {
		t.Fatalf("Reapply() = %d", got.Cents)
	}
}

func TestReplay(t *testing.T) {
	txs := []core.Transaction{
		{Amount: money(50000), Direction: core.Income},
		{Amount: money(12000), Direction: core.Expense},
		{Amount: money(3000), Direction: core.Expense},
	}
	if got := Replay(money(1000), txs); got.Cents != 1000+50000-12000-3000 {
		t.Fatalf("Replay() = %d", got.Cents)
	}
	if got := Replay(money(-200), nil); got.Cents != -200 {
		t.Fatalf("Replay(empty) = %d", got.Cents)
	}
}
