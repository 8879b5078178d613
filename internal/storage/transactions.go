package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/reconcile"
)

const transactionColumns = `id, owner_id, account_id, category_id, amount_cents, transaction_type,
	description, transaction_date, tags, created_at, updated_at`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		tags string
	)
	err := s.Scan(&t.ID, &t.Owner, &t.AccountID, &t.CategoryID, &t.Amount.Cents, &t.Direction,
		&t.Description, &t.Date, &tags, dbTime{&t.CreatedAt}, dbTime{&t.UpdatedAt})
	t.Tags = splitTags(tags)
	return t, err
}

// checkCategory loads the category and checks that it matches the direction.
func (r *Repository) checkCategory(ctx context.Context, tx *sql.Tx, owner string, id int64, dir core.Direction) error {
	c, err := r.getCategory(ctx, tx, owner, id)
	if err != nil {
		return err
	}
	if c.Type != dir {
		return core.Invalid("type", core.ErrDirectionMatch)
	}
	return nil
}

// CreateTransaction records a transaction and applies it to the account
// balance in one unit of work.
func (r *Repository) CreateTransaction(ctx context.Context, owner string, nt core.NewTransaction) (core.Transaction, error) {
	nt.Description = strings.TrimSpace(nt.Description)
	nt.Tags = core.NormalizeTags(nt.Tags)
	if err := nt.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Owner:       owner,
		AccountID:   nt.AccountID,
		CategoryID:  nt.CategoryID,
		Amount:      nt.Amount,
		Direction:   nt.Direction,
		Description: nt.Description,
		Date:        nt.Date,
		Tags:        nt.Tags,
	}

	var balance core.Money
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		account, err := r.getAccount(ctx, tx, owner, nt.AccountID, true)
		if err != nil {
			return err
		}
		if !account.Active {
			return &core.ValidationError{Field: "account_id", Reason: "account is inactive"}
		}
		if err := r.checkCategory(ctx, tx, owner, nt.CategoryID, nt.Direction); err != nil {
			return err
		}

		balance = reconcile.Apply(account.Balance, t.Amount, t.Direction)

		now := r.stamp()
		t.CreatedAt, t.UpdatedAt = now, now
		err = r.queryRow(ctx, tx, `
			INSERT INTO transactions (owner_id, account_id, category_id, amount_cents, transaction_type,
				description, transaction_date, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			owner, t.AccountID, t.CategoryID, t.Amount.Cents, string(t.Direction),
			t.Description, t.Date.String(), joinTags(t.Tags), timestamp(now), timestamp(now),
		).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		return r.writeBalance(ctx, tx, account, balance)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"type", t.Direction,
		"amount", t.Amount.String(),
		"balance", balance.String())

	return t, nil
}

// UpdateTransaction merges patch into the stored transaction, reverses the old
// effect and applies the new one in one unit of work. The account cannot change.
func (r *Repository) UpdateTransaction(ctx context.Context, owner string, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		old, err := r.getTransaction(ctx, tx, owner, id, true)
		if err != nil {
			return err
		}

		t := patch.Apply(old)
		if err := t.Validate(); err != nil {
			return err
		}
		if err := r.checkCategory(ctx, tx, owner, t.CategoryID, t.Direction); err != nil {
			return err
		}

		account, err := r.getAccount(ctx, tx, owner, old.AccountID, true)
		if err != nil {
			return err
		}
		balance := reconcile.Reapply(account.Balance, old.Amount, old.Direction, t.Amount, t.Direction)

		t.UpdatedAt = r.stamp()
		res, err := r.exec(ctx, tx, `
			UPDATE transactions
			SET category_id = ?, amount_cents = ?, transaction_type = ?, description = ?,
				transaction_date = ?, tags = ?, updated_at = ?
			WHERE id = ? AND owner_id = ?`,
			t.CategoryID, t.Amount.Cents, string(t.Direction), t.Description,
			t.Date.String(), joinTags(t.Tags), timestamp(t.UpdatedAt),
			id, owner)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return &core.ConsistencyError{AccountID: account.ID, Reason: "transaction changed during update"}
		}

		if err := r.writeBalance(ctx, tx, account, balance); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", updated.ID,
		"account_id", updated.AccountID,
		"type", updated.Direction,
		"amount", updated.Amount.String())

	return updated, nil
}

// DeleteTransaction reverses the transaction's effect and removes it. The
// deleted transaction is returned so callers can publish what changed.
func (r *Repository) DeleteTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	var deleted core.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		t, err := r.getTransaction(ctx, tx, owner, id, true)
		if err != nil {
			return err
		}
		account, err := r.getAccount(ctx, tx, owner, t.AccountID, true)
		if err != nil {
			return err
		}
		balance := reconcile.Reverse(account.Balance, t.Amount, t.Direction)

		res, err := r.exec(ctx, tx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, owner)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return &core.ConsistencyError{AccountID: account.ID, Reason: "transaction changed during delete"}
		}

		if err := r.writeBalance(ctx, tx, account, balance); err != nil {
			return err
		}
		deleted = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", deleted.ID,
		"account_id", deleted.AccountID)

	return deleted, nil
}

func (r *Repository) GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	return r.getTransaction(ctx, r.db, owner, id, false)
}

func (r *Repository) getTransaction(ctx context.Context, q querier, owner string, id int64, lock bool) (core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND owner_id = ?`
	if lock {
		query += r.dialect.forUpdate
	}
	t, err := scanTransaction(r.queryRow(ctx, q, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// whereTransactions builds the WHERE clause shared by listing and counting.
func (r *Repository) whereTransactions(owner string, f core.TransactionFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(` WHERE owner_id = ?`)
	args := []any{owner}

	if f.AccountID > 0 {
		b.WriteString(` AND account_id = ?`)
		args = append(args, f.AccountID)
	}
	if f.CategoryID > 0 {
		b.WriteString(` AND category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.Direction != "" {
		b.WriteString(` AND transaction_type = ?`)
		args = append(args, string(f.Direction))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		b.WriteString(` AND description ` + r.dialect.likeOp + ` ? ESCAPE '\'`)
		args = append(args, escapeLike(s))
	}
	if !f.From.IsZero() {
		b.WriteString(` AND transaction_date >= ?`)
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		b.WriteString(` AND transaction_date <= ?`)
		args = append(args, f.To.String())
	}
	return b.String(), args
}

// ListTransactions returns one page of the owner's transactions, newest date
// first and, within a date, newest first.
func (r *Repository) ListTransactions(ctx context.Context, owner string, f core.TransactionFilter, p core.Page) (core.TransactionPage, error) {
	p = p.Normalize()
	where, args := r.whereTransactions(owner, f)

	var total int
	if err := r.queryRow(ctx, r.db, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return core.TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}

	items, err := r.selectTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions`+where+
			` ORDER BY transaction_date DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, p.Limit, p.Offset)...)
	if err != nil {
		return core.TransactionPage{}, err
	}

	return core.TransactionPage{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

// TransactionsBetween returns every transaction dated within [from, to] for
// aggregation. Zero bounds are open.
func (r *Repository) TransactionsBetween(ctx context.Context, owner string, from, to core.Date) ([]core.Transaction, error) {
	where, args := r.whereTransactions(owner, core.TransactionFilter{From: from, To: to})
	return r.selectTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions`+where+` ORDER BY transaction_date DESC, id DESC`,
		args...)
}

// RecentTransactions returns the owner's newest n transactions.
func (r *Repository) RecentTransactions(ctx context.Context, owner string, n int) ([]core.Transaction, error) {
	page, err := r.ListTransactions(ctx, owner, core.TransactionFilter{}, core.Page{Limit: n})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// AccountLedger returns an account together with every transaction posted to
// it, read in one SQL transaction so the balance and the rows agree.
func (r *Repository) AccountLedger(ctx context.Context, owner string, accountID int64) (core.Account, []core.Transaction, error) {
	var (
		account core.Account
		txs     []core.Transaction
	)
	err := r.inSnapshot(ctx, func(tx *sql.Tx) error {
		var err error
		account, err = r.getAccount(ctx, tx, owner, accountID, false)
		if err != nil {
			return err
		}
		rows, err := r.query(ctx, tx,
			`SELECT `+transactionColumns+` FROM transactions WHERE account_id = ? AND owner_id = ? ORDER BY id`,
			accountID, owner)
		if err != nil {
			return fmt.Errorf("list account transactions: %w", err)
		}
		txs, err = collectTransactions(rows)
		return err
	})
	if err != nil {
		return core.Account{}, nil, err
	}
	return account, txs, nil
}

func (r *Repository) selectTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.query(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
