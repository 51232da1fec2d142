package postgres

import (
	"context"
	"database/sql"
	"errors"

	"templify/internal/repository"
)

// UserPostgres maintains the per-user template counter in the users table.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// TemplateCount returns the recorded counter; unknown users count as zero.
func (r *UserPostgres) TemplateCount(ctx context.Context, userID string) (int, error) {
	const q = `SELECT template_count FROM users WHERE id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// SetTemplateCount overwrites the counter, creating the row if absent.
func (r *UserPostgres) SetTemplateCount(ctx context.Context, userID string, count int) error {
	const q = `
		INSERT INTO users (id, template_count)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET template_count = EXCLUDED.template_count
	`
	_, err := r.db.ExecContext(ctx, q, userID, count)
	return err
}

// AdjustTemplateCount adds delta, clamping at zero.
func (r *UserPostgres) AdjustTemplateCount(ctx context.Context, userID string, delta int) error {
	const q = `
		INSERT INTO users (id, template_count)
		VALUES ($1, GREATEST($2, 0))
		ON CONFLICT (id) DO UPDATE SET template_count = GREATEST(users.template_count + $2, 0)
	`
	_, err := r.db.ExecContext(ctx, q, userID, delta)
	return err
}
