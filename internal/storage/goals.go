package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"expensetracker/internal/core"
)

const goalColumns = `id, owner_id, name, target_amount_cents, COALESCE(frequency, ''), reminder_enabled`

func scanGoal(s rowScanner) (core.Goal, error) {
	var (
		g         core.Goal
		frequency string
		reminder  int
	)
	if err := s.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount.Cents, &frequency, &reminder); err != nil {
		return core.Goal{}, err
	}
	g.Frequency = core.Cadence(frequency)
	g.ReminderEnabled = reminder != 0
	return g, nil
}

// ListGoals returns the user's goals, newest first.
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ? AND id = ?`, userID, id))
	if err != nil {
		return core.Goal{}, notFound(err, "goal")
	}
	return g, nil
}

func (r *SQLiteRepository) GetGoalByName(ctx context.Context, userID int64, name string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ? AND lower(trim(name)) = lower(trim(?)) LIMIT 1`,
		userID, name))
	if err != nil {
		return core.Goal{}, notFound(err, "goal")
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (owner_id, name, target_amount_cents, frequency, reminder_enabled)
		VALUES (?, ?, ?, NULLIF(?, ''), ?)`,
		g.OwnerID, g.Name, g.TargetAmount.Cents, string(g.Frequency), boolToInt(g.ReminderEnabled))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.Goal{}, fmt.Errorf("last insert id: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_amount_cents = ?, frequency = NULLIF(?, ''), reminder_enabled = ?
		WHERE owner_id = ? AND id = ?`,
		strings.TrimSpace(g.Name), g.TargetAmount.Cents, string(g.Frequency), boolToInt(g.ReminderEnabled),
		g.OwnerID, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return checkAffected(res, "goal")
}

// DeleteGoal detaches the goal's contributions and deletes it.
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_entries SET goal_id = NULL WHERE owner_id = ? AND goal_id = ?`, userID, id); err != nil {
			return fmt.Errorf("detach goal contributions: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE owner_id = ? AND id = ?`, userID, id)
		if err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		return checkAffected(res, "goal")
	})
}

// GoalSaved sums the goal's contributions: income adds, expenses subtract.
func (r *SQLiteRepository) GoalSaved(ctx context.Context, userID, goalID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN direction = 'Income' THEN amount_cents ELSE -amount_cents END), 0)
		FROM ledger_entries WHERE owner_id = ? AND goal_id = ?`, userID, goalID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum goal contributions: %w", err)
	}
	return core.Money{Cents: cents}, nil
}
