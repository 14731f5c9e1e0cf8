package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
)

// OTPRepository defines the interface for OTP challenge persistence.
// Challenges are append-and-consume only; expired rows stay behind as part
// of the authentication audit trail.
type OTPRepository interface {
	Create(ctx context.Context, challenge *models.OTPChallenge) error
	ConsumeLatest(ctx context.Context, userID, code string, now time.Time) error
}

// OTPService issues and validates one-time login codes
type OTPService struct {
	repo   OTPRepository
	email  EmailService
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewOTPService creates a new OTPService
func NewOTPService(repo OTPRepository, email EmailService, ttl time.Duration, logger *slog.Logger) *OTPService {
	return &OTPService{
		repo:   repo,
		email:  email,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateCode produces a 6-digit numeric code. Each digit is drawn
// independently from crypto/rand so the distribution over codes is uniform.
func GenerateCode() (string, error) {
	code := make([]byte, models.OTPCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate code digit: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// Issue generates a fresh code for the user, persists the challenge, and
// emails the code. Issuing does not invalidate earlier live challenges for
// the same user; each expires on its own clock.
func (s *OTPService) Issue(ctx context.Context, user *models.User) error {
	code, err := GenerateCode()
	if err != nil {
		s.logger.Error("failed to generate OTP code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	challenge := &models.OTPChallenge{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}

	if err := s.repo.Create(ctx, challenge); err != nil {
		s.logger.Error("failed to store OTP challenge", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendOTPEmail(ctx, user.Email, code, challenge.ExpiresAt); err != nil {
		s.logger.Error("failed to deliver OTP email", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrDeliveryFailed
	}

	s.logger.Info("OTP challenge issued", slog.String("user_id", user.ID))
	return nil
}

// Validate consumes the user's most recent live challenge matching the code.
// An expired, already-consumed, or mismatched code all surface as
// ErrOTPInvalid; the caller cannot tell which.
func (s *OTPService) Validate(ctx context.Context, userID, code string) error {
	if len(code) != models.OTPCodeLength {
		return models.ErrOTPInvalid
	}

	err := s.repo.ConsumeLatest(ctx, userID, code, s.now())
	if err != nil {
		if errors.Is(err, models.ErrOTPInvalid) {
			return models.ErrOTPInvalid
		}
		s.logger.Error("failed to consume OTP challenge", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}
