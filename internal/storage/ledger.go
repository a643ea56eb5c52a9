package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// Export sync states of a ledger entry.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

const ledgerColumns = `id, owner_id, category_id, goal_id, title, amount_cents, date, direction, note, created_at`

// LedgerFilter narrows ListEntries. Zero values mean "no constraint".
type LedgerFilter struct {
	Direction  core.Direction
	From       *core.Date // inclusive
	To         *core.Date // inclusive
	CategoryID *int64
	GoalID     *int64
	MonthKey   string // MM/yyyy
}

// PendingSyncEntry is the minimal data needed to requeue an export.
type PendingSyncEntry struct {
	ID        int64
	OwnerID   int64
	CreatedAt time.Time
}

// ExportEntry is a ledger entry joined with its category name for the export sheet.
type ExportEntry struct {
	Entry        core.LedgerEntry
	CategoryName string
}

func scanEntry(s rowScanner) (core.LedgerEntry, error) {
	var (
		e          core.LedgerEntry
		categoryID sql.NullInt64
		goalID     sql.NullInt64
		date       string
		direction  string
		createdAt  int64
	)
	if err := s.Scan(&e.ID, &e.OwnerID, &categoryID, &goalID, &e.Title, &e.Amount.Cents,
		&date, &direction, &e.Note, &createdAt); err != nil {
		return core.LedgerEntry{}, err
	}
	d, err := parseISODate(date)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e.Date = d
	e.Direction = core.Direction(direction)
	e.CategoryID = int64Ptr(categoryID)
	e.GoalID = int64Ptr(goalID)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return e, nil
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (owner_id, category_id, goal_id, title, amount_cents, date, direction, note, created_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, nullInt64(e.CategoryID), nullInt64(e.GoalID), strings.TrimSpace(e.Title), e.Amount.Cents,
		formatISODate(e.Date), string(e.Direction), e.Note, e.CreatedAt.UnixMilli(), SyncPending)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry saved to SQLite",
		"id", e.ID,
		"user_id", e.OwnerID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"direction", e.Direction,
		"date", e.Date.String())

	return e, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, userID, id int64) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE owner_id = ? AND id = ?`, userID, id)
	e, err := scanEntry(row)
	if err != nil {
		return core.LedgerEntry{}, notFound(err, "ledger entry")
	}
	return e, nil
}

// UpdateEntry rewrites an entry and puts it back in the export queue.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.LedgerEntry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET category_id = ?, goal_id = ?, title = ?, amount_cents = ?, date = ?,
			direction = ?, note = ?, sync_status = ?, synced_at = NULL
		WHERE owner_id = ? AND id = ?`,
		nullInt64(e.CategoryID), nullInt64(e.GoalID), strings.TrimSpace(e.Title), e.Amount.Cents,
		formatISODate(e.Date), string(e.Direction), e.Note, SyncPending, e.OwnerID, e.ID)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}
	return checkAffected(res, "ledger entry")
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE owner_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	return checkAffected(res, "ledger entry")
}

// ListEntries returns the user's entries matching f, newest date first.
func (r *SQLiteRepository) ListEntries(ctx context.Context, userID int64, f LedgerFilter) ([]core.LedgerEntry, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{userID}
	)
	if f.Direction != "" {
		where = append(where, "direction = ?")
		args = append(args, string(f.Direction))
	}
	if f.From != nil {
		where = append(where, "date >= ?")
		args = append(args, formatISODate(*f.From))
	}
	if f.To != nil {
		where = append(where, "date <= ?")
		args = append(args, formatISODate(*f.To))
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.GoalID != nil {
		where = append(where, "goal_id = ?")
		args = append(args, *f.GoalID)
	}
	if f.MonthKey != "" {
		prefix, err := monthPrefix(f.MonthKey)
		if err != nil {
			return nil, err
		}
		where = append(where, "date LIKE ? || '%'")
		args = append(args, prefix)
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
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

// GetExportEntry loads an entry with its category name, regardless of owner.
func (r *SQLiteRepository) GetExportEntry(ctx context.Context, id int64) (ExportEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT e.id, e.owner_id, e.category_id, e.goal_id, e.title, e.amount_cents, e.date, e.direction,
			e.note, e.created_at, COALESCE(c.name, '')
		FROM ledger_entries e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.id = ?`, id)

	var (
		out        ExportEntry
		categoryID sql.NullInt64
		goalID     sql.NullInt64
		date       string
		direction  string
		createdAt  int64
	)
	err := row.Scan(&out.Entry.ID, &out.Entry.OwnerID, &categoryID, &goalID, &out.Entry.Title,
		&out.Entry.Amount.Cents, &date, &direction, &out.Entry.Note, &createdAt, &out.CategoryName)
	if err != nil {
		return ExportEntry{}, notFound(err, "ledger entry")
	}
	if out.Entry.Date, err = parseISODate(date); err != nil {
		return ExportEntry{}, err
	}
	out.Entry.Direction = core.Direction(direction)
	out.Entry.CategoryID = int64Ptr(categoryID)
	out.Entry.GoalID = int64Ptr(goalID)
	out.Entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	return out, nil
}

// GetPendingSyncEntries returns entries not yet exported, oldest first.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]PendingSyncEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, created_at FROM ledger_entries
		WHERE sync_status = ? ORDER BY created_at, id LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncEntry
	for rows.Next() {
		var (
			p         PendingSyncEntry
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync entry: %w", err)
		}
		p.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks an entry as successfully exported
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET sync_status = ?, synced_at = ? WHERE id = ?`,
		SyncSynced, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	if err := checkAffected(res, "ledger entry"); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Ledger entry marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an entry as having export errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	if err := checkAffected(res, "ledger entry"); err != nil {
		return err
	}

	slog.WarnContext(ctx, "Ledger entry marked with sync error", "id", id)
	return nil
}

// SyncStatus returns the export state of an entry.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM ledger_entries WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return "", notFound(err, "ledger entry")
	}
	return status, nil
}

// ResetSyncErrors puts failed exports back in the pending state.
func (r *SQLiteRepository) ResetSyncErrors(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET sync_status = ? WHERE sync_status = ?`, SyncPending, SyncError)
	if err != nil {
		return 0, fmt.Errorf("reset sync errors: %w", err)
	}
	return res.RowsAffected()
}
