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

type AccessLogRepository struct {
	pool *pgxpool.Pool
}

func NewAccessLogRepository(db *database.DB) *AccessLogRepository {
	return &AccessLogRepository{pool: db.Pool}
}

// Append inserts a document access entry. document_id carries no foreign key
// so entries survive a purge of the document they reference.
func (r *AccessLogRepository) Append(ctx context.Context, entry *models.AccessLogEntry) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO document_access_log (id, document_id, user_id, action_type, origin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.DocumentID, entry.UserID, entry.Action, entry.Origin, entry.CreatedAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func (r *AccessLogRepository) ListByDocument(ctx context.Context, documentID string, limit, offset int) ([]*models.AccessLogEntry, error) {
	query := `
		SELECT id, document_id, user_id, action_type, origin, created_at
		FROM document_access_log
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, documentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query access log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AccessLogEntry, 0)
	for rows.Next() {
		var entry models.AccessLogEntry
		err := rows.Scan(&entry.ID, &entry.DocumentID, &entry.UserID, &entry.Action,
			&entry.Origin, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}
