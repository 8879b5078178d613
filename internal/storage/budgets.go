package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = `id, owner_id, category_id, amount_cents, period, active, created_at, updated_at`

func scanBudget(s rowScanner) (core.Budget, error) {
	var b core.Budget
	err := s.Scan(&b.ID, &b.Owner, &b.CategoryID, &b.Amount.Cents, &b.Period, &b.Active,
		dbTime{&b.CreatedAt}, dbTime{&b.UpdatedAt})
	return b, err
}

// UpsertBudget creates or replaces the owner's budget for an expense category.
func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkCategory(ctx, tx, b.Owner, b.CategoryID, core.Expense); err != nil {
			return err
		}
		now := r.stamp()
		b.UpdatedAt = now
		return r.queryRow(ctx, tx, `
			INSERT INTO budgets (owner_id, category_id, amount_cents, period, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (owner_id, category_id) DO UPDATE SET
				amount_cents = excluded.amount_cents,
				period = excluded.period,
				active = excluded.active,
				updated_at = excluded.updated_at
			RETURNING id, created_at`,
			b.Owner, b.CategoryID, b.Amount.Cents, string(b.Period), b.Active, timestamp(now), timestamp(now),
		).Scan(&b.ID, dbTime{&b.CreatedAt})
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, owner string, activeOnly bool) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE owner_id = ?`
	args := []any{owner}
	if activeOnly {
		query += ` AND active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY category_id`

	rows, err := r.query(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}
