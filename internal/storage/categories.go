package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"expensetracker/internal/core"
)

const categoryColumns = `id, owner_id, name, auto_enabled, auto_amount_cents, auto_direction,
	auto_cadence, auto_weekly_day, auto_monthly_day, auto_last_fired`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c          core.Category
		enabled    int
		amount     int64
		direction  string
		cadence    string
		weeklyDay  sql.NullInt64
		monthlyDay sql.NullInt64
		lastFired  sql.NullString
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &enabled, &amount, &direction,
		&cadence, &weeklyDay, &monthlyDay, &lastFired); err != nil {
		return core.Category{}, err
	}
	c.Rule = core.RecurringRule{
		Enabled:    enabled != 0,
		Amount:     core.Money{Cents: amount},
		Direction:  core.Direction(direction),
		Cadence:    core.Cadence(cadence),
		WeeklyDay:  intPtr(weeklyDay),
		MonthlyDay: intPtr(monthlyDay),
		LastFired:  lastFired.String,
	}
	return c, nil
}

func (r *SQLiteRepository) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCategories returns the user's categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY name COLLATE NOCASE`, userID)
}

// ListAutoCategories returns the user's categories with an enabled recurring rule, ordered by id.
func (r *SQLiteRepository) ListAutoCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND auto_enabled = 1 ORDER BY id`, userID)
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND id = ?`, userID, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, "category")
	}
	return c, nil
}

// GetCategoryByName matches case-insensitively after trimming.
func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, userID int64, name string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		WHERE owner_id = ? AND lower(trim(name)) = lower(trim(?)) LIMIT 1`, userID, name)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, "category")
	}
	return c, nil
}

// EnsureDefaultCategory returns the user's default category, creating it when missing.
func (r *SQLiteRepository) EnsureDefaultCategory(ctx context.Context, userID int64) (core.Category, error) {
	c, err := r.GetCategoryByName(ctx, userID, core.DefaultCategoryName)
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return core.Category{}, err
	}
	c, err = r.CreateCategory(ctx, core.Category{OwnerID: userID, Name: core.DefaultCategoryName, Rule: core.DefaultRule()})
	if err != nil {
		return core.Category{}, fmt.Errorf("create default category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name, auto_enabled, auto_amount_cents, auto_direction,
			auto_cadence, auto_weekly_day, auto_monthly_day, auto_last_fired)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''))`,
		c.OwnerID, c.Name, boolToInt(c.Rule.Enabled), c.Rule.Amount.Cents, string(c.Rule.Direction),
		string(c.Rule.Cadence), nullInt(c.Rule.WeeklyDay), nullInt(c.Rule.MonthlyDay), c.Rule.LastFired)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateName)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "user_id", c.OwnerID, "category_id", c.ID, "name", c.Name)
	return c, nil
}

// UpdateCategory rewrites the name and recurring rule. Entries stay attached through category_id.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, auto_enabled = ?, auto_amount_cents = ?, auto_direction = ?,
			auto_cadence = ?, auto_weekly_day = ?, auto_monthly_day = ?, auto_last_fired = NULLIF(?, '')
		WHERE owner_id = ? AND id = ?`,
		strings.TrimSpace(c.Name), boolToInt(c.Rule.Enabled), c.Rule.Amount.Cents, string(c.Rule.Direction),
		string(c.Rule.Cadence), nullInt(c.Rule.WeeklyDay), nullInt(c.Rule.MonthlyDay), c.Rule.LastFired,
		c.OwnerID, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateName)
		}
		return fmt.Errorf("update category: %w", err)
	}
	return checkAffected(res, "category")
}

// SetCategoryAutoEnabled toggles the recurring rule without touching its configuration.
func (r *SQLiteRepository) SetCategoryAutoEnabled(ctx context.Context, userID, id int64, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET auto_enabled = ? WHERE owner_id = ? AND id = ?`,
		boolToInt(enabled), userID, id)
	if err != nil {
		return fmt.Errorf("toggle category auto: %w", err)
	}
	return checkAffected(res, "category")
}

// UpdateCategoryWatermark persists the last fired date of a recurring rule.
func (r *SQLiteRepository) UpdateCategoryWatermark(ctx context.Context, userID, id int64, lastFired string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET auto_last_fired = ? WHERE owner_id = ? AND id = ?`,
		lastFired, userID, id)
	if err != nil {
		return fmt.Errorf("update category watermark: %w", err)
	}
	return checkAffected(res, "category")
}

// DeleteCategory moves the category's entries to reassignTo, then deletes it.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id, reassignTo int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE ledger_entries SET category_id = ? WHERE owner_id = ? AND category_id = ?`,
			reassignTo, userID, id)
		if err != nil {
			return fmt.Errorf("reassign entries: %w", err)
		}
		moved, err := rowsAffected(res)
		if err != nil {
			return fmt.Errorf("reassign entries: %w", err)
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM categories WHERE owner_id = ? AND id = ?`, userID, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if err := checkAffected(res, "category"); err != nil {
			return err
		}

		slog.InfoContext(ctx, "Category deleted",
			"user_id", userID, "category_id", id, "reassigned_to", reassignTo, "entries_moved", moved)
		return nil
	})
}

// CategoryTotals sums every category's entries, income positive and expense negative,
// ordered by total descending. monthKey (MM/yyyy) is optional.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, userID int64, monthKey string) ([]core.CategoryAmount, error) {
	prefix, err := monthPrefix(monthKey)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name,
			COALESCE(SUM(CASE WHEN e.direction = 'Income' THEN e.amount_cents ELSE -e.amount_cents END), 0) AS total
		FROM categories c
		LEFT JOIN ledger_entries e
			ON e.category_id = c.id AND e.owner_id = c.owner_id AND (? = '' OR e.date LIKE ? || '%')
		WHERE c.owner_id = ?
		GROUP BY c.id, c.name
		ORDER BY total DESC, c.name COLLATE NOCASE`,
		prefix, prefix, userID)
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.CategoryID, &ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// monthPrefix turns an MM/yyyy key into the yyyy-MM prefix of stored dates.
func monthPrefix(monthKey string) (string, error) {
	if monthKey == "" {
		return "", nil
	}
	if err := core.ValidateMonthKey(monthKey); err != nil {
		return "", err
	}
	return monthKey[3:] + "-" + monthKey[:2], nil
}
