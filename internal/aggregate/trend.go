package aggregate

import (
	"iter"

	"fintrack/internal/core"
)

type monthKey struct{ year, month int }

// SpendingTrend yields total expense per month for the n months ending with
// end's month, oldest first. Months without expenses are yielded as zero.
//
// Nothing is computed until the sequence is ranged over, and each range
// starts over from txs, so the sequence can be consumed any number of times.
func SpendingTrend(txs []core.Transaction, end core.Date, n int) iter.Seq[core.TrendPoint] {
	return func(yield func(core.TrendPoint) bool) {
		if n <= 0 || end.IsZero() {
			return
		}
		first := core.NewDate(end.Year(), end.Month(), 1).AddDate(0, -(n - 1), 0)
		startYear, startMonth := first.Year(), int(first.Month())

		totals := make(map[monthKey]core.Money)
		windowStart := core.NewDate(startYear, startMonth, 1)
		_, windowEnd := core.MonthBounds(end.Year(), end.Month())
		for _, t := range txs {
			if t.Direction != core.Expense || !inRange(t.Date, windowStart, windowEnd) {
				continue
			}
			k := monthKey{t.Date.Year(), t.Date.Month()}
			totals[k] = totals[k].Add(t.Amount)
		}

		y, m := startYear, startMonth
		for i := 0; i < n; i++ {
			p := core.TrendPoint{Year: y, Month: m, Expense: totals[monthKey{y, m}]}
			if !yield(p) {
				return
			}
			m++
			if m > 12 {
				m = 1
				y++
			}
		}
	}
}
