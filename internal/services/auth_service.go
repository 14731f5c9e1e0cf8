package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	pkgauth "github.com/EmerzonBasa/crld/pkg/auth"
	pkglogger "github.com/EmerzonBasa/crld/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetActiveByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePermissions(ctx context.Context, id string, caps models.Capabilities, role string) (*models.User, error)
	StampLastLogin(ctx context.Context, id string, at time.Time) error
}

// AuthService runs the two-phase login flow: password check followed by an
// emailed one-time code.
type AuthService struct {
	repo        UserRepository
	otp         *OTPService
	audit       *AuditService
	tm          *auth.TokenManager
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, otp *OTPService, audit *AuditService, tm *auth.TokenManager, timing *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		otp:         otp,
		audit:       audit,
		tm:          tm,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// LoginResponse is returned after a successful password check. The pending
// token must be presented together with the OTP code to complete the login.
type LoginResponse struct {
	PendingToken string `json:"pending_token"`
	Message      string `json:"message"`
}

// SessionResponse is returned after OTP verification completes the login.
type SessionResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID           string              `json:"id"`
	Username     string              `json:"username"`
	Email        string              `json:"email"`
	FullName     string              `json:"full_name"`
	Role         string              `json:"role"`
	Capabilities models.Capabilities `json:"capabilities"`
	Active       bool                `json:"active"`
	LastLogin    *time.Time          `json:"last_login,omitempty"`
	CreatedAt    string              `json:"created_at"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		Capabilities: user.Capabilities,
		Active:       user.Active,
		LastLogin:    user.LastLogin,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
	}
}

// Login verifies the username and password, issues an OTP challenge by email,
// and returns a pending token. Unknown usernames, inactive accounts, and
// wrong passwords all return ErrUnauthorized after a padded delay so the
// caller cannot tell which one happened.
func (s *AuthService) Login(ctx context.Context, username, password, origin string) (*LoginResponse, error) {
	if username = strings.TrimSpace(username); username == "" || password == "" {
		s.timing.WaitOnFailure()
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				Origin:        origin,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			s.timing.WaitOnFailure()
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			Origin:        origin,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		s.timing.WaitOnFailure()
		return nil, models.ErrUnauthorized
	}

	if err := s.otp.Issue(ctx, user); err != nil {
		if errors.Is(err, models.ErrDeliveryFailed) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "otp_delivery_failed",
				UserID:        user.ID,
				Origin:        origin,
				FailureReason: "email_delivery",
				Success:       false,
			})
			return nil, models.ErrDeliveryFailed
		}
		return nil, models.ErrInternalServer
	}

	pendingToken, err := s.tm.GeneratePendingToken(user.ID)
	if err != nil {
		s.logger.Error("failed to generate pending token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "password_verified",
		UserID:    user.ID,
		Origin:    origin,
		Success:   true,
	})

	return &LoginResponse{
		PendingToken: pendingToken,
		Message:      "verification code sent",
	}, nil
}

// VerifyOTP completes the login: it consumes the challenge, stamps the last
// login time, records the login activity entry, and issues the session token
// with the user's current role and capability snapshot.
func (s *AuthService) VerifyOTP(ctx context.Context, pendingToken, code, origin string) (*SessionResponse, error) {
	claims, err := s.tm.ValidatePendingToken(pendingToken)
	if err != nil {
		s.logger.Info("OTP verification with invalid pending token")
		return nil, models.ErrUnauthorized
	}

	if err := s.otp.Validate(ctx, claims.UserID, code); err != nil {
		if errors.Is(err, models.ErrOTPInvalid) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "otp_failed",
				UserID:        claims.UserID,
				Origin:        origin,
				FailureReason: "invalid_code",
				Success:       false,
			})
			s.timing.WaitOnFailure()
			return nil, models.ErrOTPInvalid
		}
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("user vanished between login phases", slog.String("user_id", claims.UserID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for session", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active {
		s.logger.Info("login blocked: account deactivated", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	sessionToken, err := s.tm.GenerateSessionToken(user)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.StampLastLogin(ctx, user.ID, time.Now()); err != nil {
		// Not worth failing the login over.
		s.logger.Warn("failed to stamp last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.audit.RecordActivity(ctx, user.ID, models.ActivityLogin, "logged in", origin)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Origin:    origin,
		Success:   true,
	})
	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &SessionResponse{
		Token: sessionToken,
		User:  userModelToResponse(user),
	}, nil
}

// Logout records the logout activity entry. The session token itself simply
// expires; there is no server-side revocation list.
func (s *AuthService) Logout(ctx context.Context, sess *models.Session, origin string) {
	s.audit.RecordActivity(ctx, sess.UserID, models.ActivityLogout, "logged out", origin)
	s.logger.Info("user logged out", slog.String("user_id", sess.UserID))
}
