package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/EmerzonBasa/crld/internal/database"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/pkg/auth"
)

// TestDB manages a PostgreSQL testcontainer for integration tests.
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase starts a PostgreSQL container, runs the embedded
// migrations against it and returns the ready-to-use wrapper.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("crld_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := database.NewFromPool(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         db,
	}, nil
}

// Teardown closes the pool and stops the container.
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation.
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"document_access_log",
		"user_activity_log",
		"documents",
		"otp_challenges",
		"document_categories",
		"companies",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedUser inserts a user with a hashed password and the given permissions.
func SeedUser(ctx context.Context, pool *pgxpool.Pool, username, email, password, role string, caps models.Capabilities) (*models.User, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		FullName:     "Test User",
		Role:         role,
		Capabilities: caps,
		Active:       true,
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, full_name, role,
			can_view, can_edit, can_upload, can_delete, can_print, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err = pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FullName, user.Role,
		caps.View, caps.Edit, caps.Upload, caps.Delete, caps.Print, user.Active,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// SeedCompany inserts a company and returns its id.
func SeedCompany(ctx context.Context, pool *pgxpool.Pool, name string) (int, error) {
	var id int
	err := pool.QueryRow(ctx,
		`INSERT INTO companies (name, is_active) VALUES ($1, TRUE) RETURNING id`, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert company: %w", err)
	}
	return id, nil
}

// SeedCategory inserts a document category and returns its id.
func SeedCategory(ctx context.Context, pool *pgxpool.Pool, name, path string) (int, error) {
	var id int
	err := pool.QueryRow(ctx,
		`INSERT INTO document_categories (name, path) VALUES ($1, $2) RETURNING id`, name, path,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}
	return id, nil
}
