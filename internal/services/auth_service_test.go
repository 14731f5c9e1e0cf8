package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	pkgauth "github.com/EmerzonBasa/crld/pkg/auth"
	pkglogger "github.com/EmerzonBasa/crld/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-thats-long-enough-123456"

func newTestUser(t *testing.T, password string) *models.User {
	t.Helper()

	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)

	return &models.User{
		ID:           "user123",
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: hash,
		FullName:     "John Doe",
		Role:         models.RoleUser,
		Capabilities: models.Capabilities{View: true, Upload: true},
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

type authServiceFixture struct {
	service      *AuthService
	userRepo     *MockUserRepository
	otpRepo      *MockOTPRepository
	email        *MockEmailService
	activityRepo *MockActivityLogRepository
	tm           *auth.TokenManager
}

func newAuthServiceFixture(userRepo *MockUserRepository, otpRepo *MockOTPRepository, email *MockEmailService) *authServiceFixture {
	logger := slog.Default()
	auditLogger := pkglogger.NewAuditLogger(logger)
	activityRepo := &MockActivityLogRepository{}

	otpService := NewOTPService(otpRepo, email, 10*time.Minute, logger)
	auditService := NewAuditService(activityRepo, &MockAccessLogRepository{}, logger, auditLogger)
	tm := auth.NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)
	timing := auth.NewTimingDelay(auth.TimingConfig{})

	return &authServiceFixture{
		service:      NewAuthService(userRepo, otpService, auditService, tm, timing, logger, auditLogger),
		userRepo:     userRepo,
		otpRepo:      otpRepo,
		email:        email,
		activityRepo: activityRepo,
		tm:           tm,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	user := newTestUser(t, "Password123")

	var sentCode string
	var storedChallenge *models.OTPChallenge

	fx := newAuthServiceFixture(
		&MockUserRepository{
			GetActiveByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
				assert.Equal(t, "jdoe", username)
				return user, nil
			},
		},
		&MockOTPRepository{
			CreateFunc: func(ctx context.Context, challenge *models.OTPChallenge) error {
				storedChallenge = challenge
				return nil
			},
		},
		&MockEmailService{
			SendOTPEmailFunc: func(ctx context.Context, email, code string, expiresAt time.Time) error {
				sentCode = code
				assert.Equal(t, "jdoe@example.com", email)
				return nil
			},
		},
	)

	resp, err := fx.service.Login(context.Background(), "jdoe", "Password123", "10.0.0.1")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.PendingToken)
	assert.Len(t, sentCode, 6)
	require.NotNil(t, storedChallenge)
	assert.Equal(t, sentCode, storedChallenge.Code)
	assert.Equal(t, user.ID, storedChallenge.UserID)

	claims, err := fx.tm.ValidatePendingToken(resp.PendingToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	fx := newAuthServiceFixture(
		&MockUserRepository{
			GetActiveByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
				return nil, models.ErrNotFound
			},
		},
		&MockOTPRepository{},
		&MockEmailService{},
	)

	resp, err := fx.service.Login(context.Background(), "nobody", "whatever1", "10.0.0.1")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, resp)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	user := newTestUser(t, "Password123")

	emailSent := false
	fx := newAuthServiceFixture(
		&MockUserRepository{
			GetActiveByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
				return user, nil
			},
		},
		&MockOTPRepository{},
		&MockEmailService{
			SendOTPEmailFunc: func(ctx context.Context, email, code string, expiresAt time.Time) error {
				emailSent = true
				return nil
			},
		},
	)

	resp, err := fx.service.Login(context.Background(), "jdoe", "WrongPassword1", "10.0.0.1")

	// Same error as an unknown username: the caller learns nothing.
	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, resp)
	assert.False(t, emailSent)
}

func TestAuthService_Login_EmptyCredentials(t *testing.T) {
	fx := newAuthServiceFixture(&MockUserRepository{}, &MockOTPRepository{}, &MockEmailService{})

	resp, err := fx.service.Login(context.Background(), "  ", "", "10.0.0.1")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, resp)
}

func TestAuthService_Login_EmailDeliveryFailure(t *testing.T) {
	user := newTestUser(t, "Password123")

	fx := newAuthServiceFixture(
		&MockUserRepository{
			GetActiveByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
				return user, nil
			},
		},
		&MockOTPRepository{},
		&MockEmailService{
			SendOTPEmailFunc: func(ctx context.Context, email, code string, expiresAt time.Time) error {
				return assert.AnError
			},
		},
	)

	resp, err := fx.service.Login(context.Background(), "jdoe", "Password123", "10.0.0.1")

	assert.Equal(t, models.ErrDeliveryFailed, err)
	assert.Nil(t, resp)
}

func TestAuthService_VerifyOTP_Success(t *testing.T) {
	user := newTestUser(t, "Password123")

	stampedAt := time.Time{}
	fx := newAuthServiceFixture(
		&MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				assert.Equal(t, user.ID, id)
				return user, nil
			},
			StampLastLoginFunc: func(ctx context.Context, id string, at time.Time) error {
				stampedAt = at
				return nil
			},
		},
		&MockOTPRepository{
			ConsumeLatestFunc: func(ctx context.Context, userID, code string, now time.Time) error {
				assert.Equal(t, user.ID, userID)
				assert.Equal(t, "123456", code)
				return nil
			},
		},
		&MockEmailService{},
	)

	pendingToken, err := fx.tm.GeneratePendingToken(user.ID)
	require.NoError(t, err)

	resp, err := fx.service.VerifyOTP(context.Background(), pendingToken, "123456", "10.0.0.1")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.False(t, stampedAt.IsZero())

	claims, err := fx.tm.ValidateSessionToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.Role)
	assert.True(t, claims.Capabilities.View)
	assert.True(t, claims.Capabilities.Upload)
	assert.False(t, claims.Capabilities.Delete)

	// One login activity entry was recorded.
	require.Len(t, fx.activityRepo.Entries, 1)
	assert.Equal(t, models.ActivityLogin, fx.activityRepo.Entries[0].Kind)
	assert.Equal(t, user.ID, fx.activityRepo.Entries[0].UserID)
	assert.Equal(t, "10.0.0.1", fx.activityRepo.Entries[0].Origin)
}

func TestAuthService_VerifyOTP_WrongCode(t *testing.T) {
	user := newTestUser(t, "Password123")

	fx := newAuthServiceFixture(
		&MockUserRepository{},
		&MockOTPRepository{
			ConsumeLatestFunc: func(ctx context.Context, userID, code string, now time.Time) error {
				return models.ErrOTPInvalid
			},
		},
		&MockEmailService{},
	)

	pendingToken, err := fx.tm.GeneratePendingToken(user.ID)
	require.NoError(t, err)

	resp, err := fx.service.VerifyOTP(context.Background(), pendingToken, "654321", "10.0.0.1")

	assert.Equal(t, models.ErrOTPInvalid, err)
	assert.Nil(t, resp)
	assert.Empty(t, fx.activityRepo.Entries)
}

func TestAuthService_VerifyOTP_SessionTokenRejected(t *testing.T) {
	user := newTestUser(t, "Password123")

	fx := newAuthServiceFixture(&MockUserRepository{}, &MockOTPRepository{}, &MockEmailService{})

	sessionToken, err := fx.tm.GenerateSessionToken(user)
	require.NoError(t, err)

	resp, err := fx.service.VerifyOTP(context.Background(), sessionToken, "123456", "10.0.0.1")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, resp)
}

func TestAuthService_VerifyOTP_GarbageToken(t *testing.T) {
	fx := newAuthServiceFixture(&MockUserRepository{}, &MockOTPRepository{}, &MockEmailService{})

	resp, err := fx.service.VerifyOTP(context.Background(), "not-a-token", "123456", "10.0.0.1")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, resp)
}

func TestAuthService_VerifyOTP_DeactivatedAccount(t *testing.T) {
	user := newTestUser(t, "Password123")
	user.Active = false

	fx := newAuthServiceFixture(
		&MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return user, nil
			},
		},
		&MockOTPRepository{
			ConsumeLatestFunc: func(ctx context.Context, userID, code string, now time.Time) error {
				return nil
			},
		},
		&MockEmailService{},
	)

	pendingToken, err := fx.tm.GeneratePendingToken(user.ID)
	require.NoError(t, err)

	resp, err := fx.service.VerifyOTP(context.Background(), pendingToken, "123456", "10.0.0.1")

	assert.Equal(t, models.ErrUnauthorized, err)
	assert.Nil(t, resp)
}

func TestAuthService_Logout_RecordsActivity(t *testing.T) {
	fx := newAuthServiceFixture(&MockUserRepository{}, &MockOTPRepository{}, &MockEmailService{})

	sess := &models.Session{UserID: "user123", Username: "jdoe", Role: models.RoleUser}
	fx.service.Logout(context.Background(), sess, "10.0.0.1")

	require.Len(t, fx.activityRepo.Entries, 1)
	assert.Equal(t, models.ActivityLogout, fx.activityRepo.Entries[0].Kind)
}
