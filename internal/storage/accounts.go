package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

const accountColumns = `id, owner_id, name, account_type, initial_balance_cents, balance_cents,
	currency, active, version, created_at`

func scanAccount(s rowScanner) (core.Account, error) {
	var a core.Account
	err := s.Scan(&a.ID, &a.Owner, &a.Name, &a.Type, &a.InitialBalance.Cents, &a.Balance.Cents,
		&a.Currency, &a.Active, &a.Version, dbTime{&a.CreatedAt})
	return a, err
}

// CreateAccount inserts an account whose balance starts at its initial balance.
func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if a.Currency == "" {
		a.Currency = core.DefaultCurrency
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	a.Balance = a.InitialBalance
	a.Active = true
	a.Version = 0
	a.CreatedAt = r.stamp()

	err := r.queryRow(ctx, r.db, `
		INSERT INTO accounts (owner_id, name, account_type, initial_balance_cents, balance_cents,
			currency, active, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.Owner, a.Name, string(a.Type), a.InitialBalance.Cents, a.Balance.Cents,
		a.Currency, a.Active, a.Version, timestamp(a.CreatedAt),
	).Scan(&a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"owner", a.Owner,
		"type", a.Type,
		"initial_balance", a.InitialBalance.String())

	return a, nil
}

func (r *Repository) GetAccount(ctx context.Context, owner string, id int64) (core.Account, error) {
	return r.getAccount(ctx, r.db, owner, id, false)
}

// getAccount loads an owned account. With lock set it takes the row lock the
// dialect offers; callers must pass a *sql.Tx in that case.
func (r *Repository) getAccount(ctx context.Context, q querier, owner string, id int64, lock bool) (core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND owner_id = ?`
	if lock {
		query += r.dialect.forUpdate
	}
	a, err := scanAccount(r.queryRow(ctx, q, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, &core.NotFoundError{Entity: "account", ID: id}
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns the owner's accounts in creation order.
func (r *Repository) ListAccounts(ctx context.Context, owner string, activeOnly bool) ([]core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = ?`
	args := []any{owner}
	if activeOnly {
		query += ` AND active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY id`

	rows, err := r.query(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// SetAccountActive toggles whether an account accepts new transactions.
func (r *Repository) SetAccountActive(ctx context.Context, owner string, id int64, active bool) (core.Account, error) {
	var out core.Account
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		a, err := r.getAccount(ctx, tx, owner, id, true)
		if err != nil {
			return err
		}
		res, err := r.exec(ctx, tx, `
			UPDATE accounts SET active = ?, version = version + 1
			WHERE id = ? AND owner_id = ? AND version = ?`,
			active, a.ID, owner, a.Version)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if err := expectOneRow(res, a.ID); err != nil {
			return err
		}
		a.Active = active
		a.Version++
		out = a
		return nil
	})
	return out, err
}

// writeBalance stores a recomputed balance. The version check turns a lost
// update into a ConsistencyError that aborts the surrounding unit of work.
func (r *Repository) writeBalance(ctx context.Context, tx *sql.Tx, a core.Account, balance core.Money) error {
	res, err := r.exec(ctx, tx, `
		UPDATE accounts SET balance_cents = ?, version = version + 1
		WHERE id = ? AND owner_id = ? AND version = ?`,
		balance.Cents, a.ID, a.Owner, a.Version)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	return expectOneRow(res, a.ID)
}

func expectOneRow(res sql.Result, accountID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return &core.ConsistencyError{AccountID: accountID, Reason: "account changed during update"}
	}
	return nil
}

// ListOwners returns every owner that has at least one account.
func (r *Repository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx, r.db, `SELECT DISTINCT owner_id FROM accounts ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}
