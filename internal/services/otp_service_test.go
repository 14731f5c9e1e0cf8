package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_SixDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "unexpected character %q in code %q", c, code)
		}
	}
}

func TestOTPService_Issue_SetsExpiry(t *testing.T) {
	var challenge *models.OTPChallenge
	repo := &MockOTPRepository{
		CreateFunc: func(ctx context.Context, c *models.OTPChallenge) error {
			challenge = c
			return nil
		},
	}

	svc := NewOTPService(repo, &MockEmailService{}, 10*time.Minute, slog.Default())
	issuedAt := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	user := &models.User{ID: "user123", Email: "jdoe@example.com"}
	require.NoError(t, svc.Issue(context.Background(), user))

	require.NotNil(t, challenge)
	assert.Equal(t, issuedAt.Add(10*time.Minute), challenge.ExpiresAt)
	assert.Len(t, challenge.Code, 6)
}

func TestOTPService_Issue_DeliveryFailure(t *testing.T) {
	repo := &MockOTPRepository{
		CreateFunc: func(ctx context.Context, c *models.OTPChallenge) error { return nil },
	}
	email := &MockEmailService{
		SendOTPEmailFunc: func(ctx context.Context, addr, code string, expiresAt time.Time) error {
			return assert.AnError
		},
	}

	svc := NewOTPService(repo, email, 10*time.Minute, slog.Default())

	err := svc.Issue(context.Background(), &models.User{ID: "user123", Email: "jdoe@example.com"})
	assert.Equal(t, models.ErrDeliveryFailed, err)
}

func TestOTPService_Validate_WrongLength(t *testing.T) {
	consumed := false
	repo := &MockOTPRepository{
		ConsumeLatestFunc: func(ctx context.Context, userID, code string, now time.Time) error {
			consumed = true
			return nil
		},
	}

	svc := NewOTPService(repo, &MockEmailService{}, 10*time.Minute, slog.Default())

	err := svc.Validate(context.Background(), "user123", "12345")
	assert.Equal(t, models.ErrOTPInvalid, err)
	// Malformed codes never reach the database.
	assert.False(t, consumed)
}

func TestOTPService_Validate_ConsumeFailure(t *testing.T) {
	repo := &MockOTPRepository{
		ConsumeLatestFunc: func(ctx context.Context, userID, code string, now time.Time) error {
			return models.ErrOTPInvalid
		},
	}

	svc := NewOTPService(repo, &MockEmailService{}, 10*time.Minute, slog.Default())

	err := svc.Validate(context.Background(), "user123", "123456")
	assert.Equal(t, models.ErrOTPInvalid, err)
}

func TestOTPService_Validate_PassesClock(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	repo := &MockOTPRepository{
		ConsumeLatestFunc: func(ctx context.Context, userID, code string, at time.Time) error {
			assert.Equal(t, now, at)
			return nil
		},
	}

	svc := NewOTPService(repo, &MockEmailService{}, 10*time.Minute, slog.Default())
	svc.now = func() time.Time { return now }

	assert.NoError(t, svc.Validate(context.Background(), "user123", "123456"))
}
