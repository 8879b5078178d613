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

const (
	defaultCategoryColor = "#3B82F6"
	defaultCategoryIcon  = "💰"
)

// DefaultCategories are seeded for every owner on first use.
var DefaultCategories = []core.Category{
	{Name: "Food & Dining", Type: core.Expense, Color: "#EF4444", Icon: "🍽️"},
	{Name: "Transportation", Type: core.Expense, Color: "#F97316", Icon: "🚗"},
	{Name: "Shopping", Type: core.Expense, Color: "#8B5CF6", Icon: "🛍️"},
	{Name: "Entertainment", Type: core.Expense, Color: "#EC4899", Icon: "🎬"},
	{Name: "Bills & Utilities", Type: core.Expense, Color: "#06B6D4", Icon: "⚡"},
	{Name: "Healthcare", Type: core.Expense, Color: "#10B981", Icon: "🏥"},
	{Name: "Education", Type: core.Expense, Color: "#3B82F6", Icon: "📚"},
	{Name: "Travel", Type: core.Expense, Color: "#F59E0B", Icon: "✈️"},
	{Name: "Salary", Type: core.Income, Color: "#22C55E", Icon: "💼"},
	{Name: "Freelance", Type: core.Income, Color: "#84CC16", Icon: "💻"},
	{Name: "Investment", Type: core.Income, Color: "#06B6D4", Icon: "📈"},
	{Name: "Other Income", Type: core.Income, Color: "#8B5CF6", Icon: "💰"},
}

const categoryColumns = `id, owner_id, name, category_type, color, icon, is_default, created_at`

func scanCategory(s rowScanner) (core.Category, error) {
	var c core.Category
	err := s.Scan(&c.ID, &c.Owner, &c.Name, &c.Type, &c.Color, &c.Icon, &c.IsDefault, dbTime{&c.CreatedAt})
	return c, err
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Color == "" {
		c.Color = defaultCategoryColor
	}
	if c.Icon == "" {
		c.Icon = defaultCategoryIcon
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = r.stamp()

	err := r.insertCategory(ctx, r.db, &c)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.ValidationError{Field: "name", Reason: fmt.Sprintf("category %q already exists", c.Name)}
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// insertCategory returns sql.ErrNoRows when the owner already has a category
// with that name.
func (r *Repository) insertCategory(ctx context.Context, q querier, c *core.Category) error {
	return r.queryRow(ctx, q, `
		INSERT INTO categories (owner_id, name, category_type, color, icon, is_default, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, name) DO NOTHING
		RETURNING id`,
		c.Owner, c.Name, string(c.Type), c.Color, c.Icon, c.IsDefault, timestamp(c.CreatedAt),
	).Scan(&c.ID)
}

// SeedDefaultCategories inserts DefaultCategories the owner does not have yet.
// It is safe to call repeatedly.
func (r *Repository) SeedDefaultCategories(ctx context.Context, owner string) (int, error) {
	created := 0
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		now := timestamp(r.stamp())
		for _, def := range DefaultCategories {
			res, err := r.exec(ctx, tx, `
				INSERT INTO categories (owner_id, name, category_type, color, icon, is_default, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (owner_id, name) DO NOTHING`,
				owner, def.Name, string(def.Type), def.Color, def.Icon, true, now)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", def.Name, err)
			}
			n, _ := res.RowsAffected()
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		slog.InfoContext(ctx, "Default categories seeded", "owner", owner, "count", created)
	}
	return created, nil
}

// ListCategories returns the owner's categories ordered by type then name.
// An empty direction lists both types.
func (r *Repository) ListCategories(ctx context.Context, owner string, dir core.Direction) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = ?`
	args := []any{owner}
	if dir != "" {
		query += ` AND category_type = ?`
		args = append(args, string(dir))
	}
	query += ` ORDER BY category_type, name`

	rows, err := r.query(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *Repository) GetCategory(ctx context.Context, owner string, id int64) (core.Category, error) {
	return r.getCategory(ctx, r.db, owner, id)
}

func (r *Repository) getCategory(ctx context.Context, q querier, owner string, id int64) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx, q,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}
