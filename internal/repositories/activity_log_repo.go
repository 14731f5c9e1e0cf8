package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/EmerzonBasa/crld/internal/database"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityLogRepository struct {
	pool *pgxpool.Pool
}

func NewActivityLogRepository(db *database.DB) *ActivityLogRepository {
	return &ActivityLogRepository{pool: db.Pool}
}

// Append inserts an activity entry. The table is append-only; there is no
// update or delete path.
func (r *ActivityLogRepository) Append(ctx context.Context, entry *models.ActivityLogEntry) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO user_activity_log (id, user_id, activity_type, description, origin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Kind, entry.Description, entry.Origin, entry.CreatedAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func (r *ActivityLogRepository) List(ctx context.Context, limit, offset int) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT id, user_id, activity_type, description, origin, created_at
		FROM user_activity_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.ActivityLogEntry, 0)
	for rows.Next() {
		var entry models.ActivityLogEntry
		err := rows.Scan(&entry.ID, &entry.UserID, &entry.Kind, &entry.Description,
			&entry.Origin, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}
