package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	pkgauth "github.com/EmerzonBasa/crld/pkg/auth"
	pkglogger "github.com/EmerzonBasa/crld/pkg/logger"
)

// UserService handles user administration
type UserService struct {
	repo        UserRepository
	audit       *AuditService
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, audit *AuditService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		audit:       audit,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CreateUserInput carries a new account's details.
type CreateUserInput struct {
	Username     string
	Email        string
	Password     string
	FullName     string
	Role         string
	Capabilities models.Capabilities
}

// ListUsers returns the account roster. Admins and managers can see it.
func (s *UserService) ListUsers(ctx context.Context, sess *models.Session, limit, offset int) ([]*UserResponse, error) {
	if sess == nil {
		return nil, models.ErrUnauthorized
	}
	if !sess.CanManageUsers() {
		return nil, models.ErrForbidden
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userModelToResponse(user))
	}
	return responses, nil
}

// GetUser returns one account.
func (s *UserService) GetUser(ctx context.Context, sess *models.Session, id string) (*UserResponse, error) {
	if sess == nil {
		return nil, models.ErrUnauthorized
	}
	if !sess.CanManageUsers() && sess.UserID != id {
		return nil, models.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userModelToResponse(user), nil
}

// CreateUser creates a new account. Admin only.
func (s *UserService) CreateUser(ctx context.Context, sess *models.Session, input CreateUserInput, origin string) (*UserResponse, error) {
	if err := auth.RequireRole(sess, models.RoleAdmin); err != nil {
		return nil, err
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Username == "" || input.Email == "" {
		return nil, models.ErrBadRequest
	}
	if input.Role != models.RoleAdmin && input.Role != models.RoleManager && input.Role != models.RoleUser {
		return nil, models.ErrBadRequest
	}
	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
		Capabilities: input.Capabilities,
		Active:       true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.RecordActivity(ctx, sess.UserID, models.ActivityUserCreated,
		fmt.Sprintf("created user %s", created.Username), origin)
	s.auditLogger.LogAccountAction("user_created", created.ID, origin, map[string]string{
		"username":   created.Username,
		"role":       created.Role,
		"created_by": sess.UserID,
	})
	s.logger.Info("user created", slog.String("user_id", created.ID), slog.String("created_by", sess.UserID))

	return userModelToResponse(created), nil
}

// UpdatePermissions replaces a user's role and capability bits. Admin only.
// Existing sessions keep their old snapshot; the change lands at the user's
// next login.
func (s *UserService) UpdatePermissions(ctx context.Context, sess *models.Session, id string, caps models.Capabilities, role string, origin string) (*UserResponse, error) {
	if err := auth.RequireRole(sess, models.RoleAdmin); err != nil {
		return nil, err
	}

	if role != models.RoleAdmin && role != models.RoleManager && role != models.RoleUser {
		return nil, models.ErrBadRequest
	}

	updated, err := s.repo.UpdatePermissions(ctx, id, caps, role)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update permissions", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.RecordActivity(ctx, sess.UserID, models.ActivityUserUpdated,
		fmt.Sprintf("updated permissions for user %s", updated.Username), origin)
	s.auditLogger.LogAccountAction("permissions_updated", updated.ID, origin, map[string]string{
		"role":       updated.Role,
		"updated_by": sess.UserID,
	})
	s.logger.Info("user permissions updated", slog.String("user_id", id), slog.String("updated_by", sess.UserID))

	return userModelToResponse(updated), nil
}
