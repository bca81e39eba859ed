package auth

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gearhub/gearhub/internal/platform/db"
	"github.com/gearhub/gearhub/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email together with its customer's status.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var (
		user User
		role string
	)
	err := r.pool.QueryRow(ctx, `SELECT u.id, u.email, u.name, u.password_hash, u.role, u.customer_id, COALESCE(c.status, ''),
		u.is_active, u.created_at, u.updated_at
		FROM users u LEFT JOIN customers c ON c.id = u.customer_id
		WHERE u.email = $1`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role, &user.CustomerID, &user.CustomerStatus,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.Role = shared.Role(role)
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
