package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/EmerzonBasa/crld/internal/database"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, username, email, password_hash, full_name, role,
	can_view, can_edit, can_upload, can_delete, can_print,
	is_active, last_login, created_at, updated_at`

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var lastLogin *time.Time

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName, &user.Role,
		&user.Capabilities.View, &user.Capabilities.Edit, &user.Capabilities.Upload,
		&user.Capabilities.Delete, &user.Capabilities.Print,
		&user.Active, &lastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.LastLogin = lastLogin
	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// GetActiveByUsername looks up an active account only; inactive accounts are
// indistinguishable from unknown ones to the caller.
func (r *UserRepository) GetActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND is_active = TRUE`

	return scanUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, full_name, role,
			can_view, can_edit, can_upload, can_delete, can_print,
			is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FullName, user.Role,
		user.Capabilities.View, user.Capabilities.Edit, user.Capabilities.Upload,
		user.Capabilities.Delete, user.Capabilities.Print,
		user.Active, user.CreatedAt, user.UpdatedAt,
	))
}

// UpdatePermissions replaces the capability bits and role for a user. The
// change applies to future sessions only.
func (r *UserRepository) UpdatePermissions(ctx context.Context, id string, caps models.Capabilities, role string) (*models.User, error) {
	query := `
		UPDATE users
		SET can_view = $1, can_edit = $2, can_upload = $3, can_delete = $4, can_print = $5,
			role = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		caps.View, caps.Edit, caps.Upload, caps.Delete, caps.Print,
		role, time.Now(), id,
	))
}

// StampLastLogin records a successful authentication.
func (r *UserRepository) StampLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
