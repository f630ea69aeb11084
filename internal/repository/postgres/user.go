package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/user"
	"github.com/jmoiron/sqlx"
)

// UserRepo implements user.Repository against PostgreSQL.
type UserRepo struct{ db *sqlx.DB }

// NewUserRepo creates a Postgres-backed user repository.
func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

var _ user.Repository = (*UserRepo)(nil)

const userColumns = `id, username, email, name, role, active, last_login_at, created_at`

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, string, error) {
	var row struct {
		domain.User
		PasswordHash string `db:"password_hash"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+`, password_hash FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", user.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get user by username: %w", err)
	}
	return &row.User, row.PasswordHash, nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var w filter
	page, args := w.page(limit, offset)
	out := []domain.User{}
	if err := r.db.SelectContext(ctx, &out, `SELECT `+userColumns+` FROM users ORDER BY username`+page, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return out, total, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, name, role, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Username, u.Email, u.Name, u.RoleName, passwordHash, u.Active, u.CreatedAt)
	if isUniqueViolation(err) {
		return user.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) SetRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
}

func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
}

func (r *UserRepo) exec(ctx context.Context, q string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
