package repositories

import (
	"context"
	"time"

	"github.com/EmerzonBasa/crld/internal/database"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(db *database.DB) *OTPRepository {
	return &OTPRepository{pool: db.Pool}
}

func (r *OTPRepository) Create(ctx context.Context, challenge *models.OTPChallenge) error {
	challenge.ID = uuid.New().String()
	challenge.CreatedAt = time.Now()

	query := `
		INSERT INTO otp_challenges (id, user_id, code, consumed, created_at, expires_at)
		VALUES ($1, $2, $3, FALSE, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		challenge.ID, challenge.UserID, challenge.Code, challenge.CreatedAt, challenge.ExpiresAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// ConsumeLatest atomically marks the most recent live challenge matching the
// code as consumed. A single conditional UPDATE means two concurrent attempts
// with the same code cannot both succeed.
func (r *OTPRepository) ConsumeLatest(ctx context.Context, userID, code string, now time.Time) error {
	query := `
		UPDATE otp_challenges
		SET consumed = TRUE
		WHERE id = (
			SELECT id FROM otp_challenges
			WHERE user_id = $1 AND code = $2 AND consumed = FALSE AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT 1
		) AND consumed = FALSE
		RETURNING id`

	var id string
	err := r.pool.QueryRow(ctx, query, userID, code, now).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.ErrOTPInvalid
		}
		return database.MapPostgresError(err)
	}
	return nil
}
