package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"expensetracker/internal/core"
)

// CreateUser inserts a user together with the default category every user owns.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username string, passwordHash []byte) (core.User, error) {
	user := core.User{Username: strings.TrimSpace(username), PasswordHash: passwordHash}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
			user.Username, passwordHash)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("username %q: %w", user.Username, core.ErrDuplicateName)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if user.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO categories (owner_id, name) VALUES (?, ?)`,
			user.ID, core.DefaultCategoryName)
		if err != nil {
			return fmt.Errorf("seed default category: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ? LIMIT 1`,
		strings.TrimSpace(username)).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

// ListUserIDs returns every user that owns at least one auto-enabled category.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner_id FROM categories WHERE auto_enabled = 1 ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list users with recurring rules: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
