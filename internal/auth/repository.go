package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restaurant-api/restaurant-api/internal/platform/db"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user User) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user and its role by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT u.id, u.email, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), u.date_of_birth,
		       COALESCE(u.nationality, ''), u.password_hash, u.role_id, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE lower(u.email) = lower($1)`
	var (
		user     User
		roleName string
	)
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.DateOfBirth,
		&user.Nationality, &user.PasswordHash, &user.RoleID, &roleName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	role, err := ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	user.Role = role
	return &user, nil
}

// EmailExists reports whether an account already uses email.
func (r *PGRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("auth: email exists: %w", err)
	}
	return exists, nil
}

// CreateUser inserts the account and returns its ID.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (int64, error) {
	const query = `
		INSERT INTO users (email, first_name, last_name, date_of_birth, nationality, password_hash, role_id)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7)
		RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		user.Email, user.FirstName, user.LastName, user.DateOfBirth, user.Nationality, user.PasswordHash, user.RoleID,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("auth: create user: %w", httpx.ErrDuplicate)
		}
		return 0, fmt.Errorf("auth: create user: %w", err)
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
