// Package reconcile applies and reverses transaction effects on account balances.
//
// The functions are pure: the caller persists the result inside the unit of work
// that also writes the transaction, so a new balance is never visible before commit.
package reconcile

import "fintrack/internal/core"

// Effect returns the signed change a transaction makes to its account balance.
func Effect(amount core.Money, dir core.Direction) core.Money {
	if dir == core.Expense {
		return amount.Neg()
	}
	return amount
}

// Apply adds amount to balance for income and subtracts it for expense.
func Apply(balance, amount core.Money, dir core.Direction) core.Money {
	return balance.Add(Effect(amount, dir))
}

// Reverse undoes Apply.
func Reverse(balance, amount core.Money, dir core.Direction) core.Money {
	return balance.Sub(Effect(amount, dir))
}

// Reapply reverses the old effect and then applies the new one.
func Reapply(balance, oldAmount core.Money, oldDir core.Direction, newAmount core.Money, newDir core.Direction) core.Money {
	return Apply(Reverse(balance, oldAmount, oldDir), newAmount, newDir)
}

// Replay rebuilds a balance from an opening balance and a transaction set.
func Replay(initial core.Money, txs []core.Transaction) core.Money {
	balance := initial
	for _, t := range txs {
		balance = Apply(balance, t.Amount, t.Direction)
	}
	return balance
}
