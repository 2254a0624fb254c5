package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avekens/threadlens/internal/models"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	if user.Email == "" {
		return fmt.Errorf("email is required")
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
	INSERT INTO users (name, email, role, is_verified, password_hash, google_id)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	RETURNING uid, created_at
	`
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Role,
		user.IsVerified,
		user.PasswordHash,
		user.GoogleID,
	).Scan(&user.UID, &user.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pkgerrors.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	query := `
	SELECT uid, name, email, role, is_verified, COALESCE(password_hash, ''), COALESCE(google_id, ''), created_at
	FROM users WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresUserRepository) GetByUID(ctx context.Context, uid uuid.UUID) (*models.User, error) {
	query := `
	SELECT uid, name, email, role, is_verified, COALESCE(password_hash, ''), COALESCE(google_id, ''), created_at
	FROM users WHERE uid = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, uid))
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsVerified,
		&user.PasswordHash,
		&user.GoogleID,
		&user.CreatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresUserRepository) UpdateVerified(ctx context.Context, uid uuid.UUID, verified bool) error {
	return r.exec(ctx, `UPDATE users SET is_verified = $1 WHERE uid = $2`, verified, uid)
}

func (r *PostgresUserRepository) UpdatePasswordHash(ctx context.Context, uid uuid.UUID, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $1 WHERE uid = $2`, passwordHash, uid)
}

func (r *PostgresUserRepository) UpdateGoogleID(ctx context.Context, uid uuid.UUID, googleID string) error {
	return r.exec(ctx, `UPDATE users SET google_id = $1 WHERE uid = $2`, googleID, uid)
}

func (r *PostgresUserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n == 0 {
		return pkgerrors.ErrUserNotFound
	}
	return nil
}
