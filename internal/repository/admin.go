package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getAdminByUsernameSQL = `SELECT id, username, password_hash, created_at
		FROM admins WHERE username = $1`
	upsertAdminSQL = `INSERT INTO admins (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`
)

// ErrAdminNotFound is returned when no admin matches the username.
var ErrAdminNotFound = errors.New("admin not found")

// Admin is a staff account for the administrative console.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminRepository provides admin account lookup for login.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository returns an AdminRepository that uses the given pool.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// GetByUsername returns the admin account, or ErrAdminNotFound.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, getAdminByUsernameSQL, username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, errors.Wrap(err, "get admin")
	}
	return &a, nil
}

// Upsert creates the account or rotates its password hash. Used by seeding.
func (r *AdminRepository) Upsert(ctx context.Context, username, passwordHash string) error {
	_, err := r.pool.Exec(ctx, upsertAdminSQL, username, passwordHash)
	return errors.Wrap(err, "upsert admin")
}
