package storage

import (
	"context"
	"fmt"

	"expensetracker/internal/core"
)

// TopExpenses returns the user's largest expenses.
func (r *SQLiteRepository) TopExpenses(ctx context.Context, userID int64, limit int) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE owner_id = ? AND direction = 'Expense'
		ORDER BY amount_cents DESC, date DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query top expenses: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DailyTotals groups one direction's entries by date, oldest first.
func (r *SQLiteRepository) DailyTotals(ctx context.Context, userID int64, direction core.Direction) ([]core.DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, SUM(amount_cents) FROM ledger_entries
		WHERE owner_id = ? AND direction = ?
		GROUP BY date ORDER BY date`, userID, string(direction))
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var out []core.DailyTotal
	for rows.Next() {
		var (
			date  string
			total int64
		)
		if err := rows.Scan(&date, &total); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		d, err := parseISODate(date)
		if err != nil {
			return nil, err
		}
		out = append(out, core.DailyTotal{Date: d, Direction: direction, Total: core.Money{Cents: total}})
	}
	return out, rows.Err()
}

// ReadMonthOverview returns income, expense and per-category totals for a month.
func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, userID int64, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}
	if month < 1 || month > 12 {
		return overview, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	prefix := fmt.Sprintf("%04d-%02d", year, month)

	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN direction = 'Expense' THEN amount_cents END), 0),
			COALESCE(SUM(CASE WHEN direction = 'Income' THEN amount_cents END), 0)
		FROM ledger_entries WHERE owner_id = ? AND date LIKE ? || '%'`,
		userID, prefix).Scan(&overview.Expense.Cents, &overview.Income.Cents)
	if err != nil {
		return overview, fmt.Errorf("get month totals: %w", err)
	}
	overview.Balance = core.Money{Cents: overview.Income.Cents - overview.Expense.Cents}

	byCategory, err := r.CategoryTotals(ctx, userID, fmt.Sprintf("%02d/%04d", month, year))
	if err != nil {
		return overview, fmt.Errorf("get category sums: %w", err)
	}
	for _, ca := range byCategory {
		if ca.Amount.Cents != 0 {
			overview.ByCategory = append(overview.ByCategory, ca)
		}
	}

	return overview, nil
}
