package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
	pkglogger "github.com/EmerzonBasa/crld/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserServiceFixture(repo *MockUserRepository) (*UserService, *MockActivityLogRepository) {
	logger := slog.Default()
	activityRepo := &MockActivityLogRepository{}
	audit := NewAuditService(activityRepo, &MockAccessLogRepository{}, logger, pkglogger.NewAuditLogger(logger))
	return NewUserService(repo, audit, logger, pkglogger.NewAuditLogger(logger)), activityRepo
}

func adminSession() *models.Session {
	return &models.Session{
		UserID:       "admin1",
		Username:     "admin",
		Role:         models.RoleAdmin,
		Capabilities: models.Capabilities{View: true, Edit: true, Upload: true, Delete: true, Print: true},
	}
}

func TestUserService_CreateUser_Success(t *testing.T) {
	svc, activityRepo := newUserServiceFixture(&MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user456"
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return user, nil
		},
	})

	input := CreateUserInput{
		Username:     "jdoe",
		Email:        "JDoe@Example.com",
		Password:     "Password123",
		FullName:     "John Doe",
		Role:         models.RoleUser,
		Capabilities: models.Capabilities{View: true},
	}

	resp, err := svc.CreateUser(context.Background(), adminSession(), input, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, "user456", resp.ID)
	assert.Equal(t, "jdoe@example.com", resp.Email)
	assert.True(t, resp.Capabilities.View)
	assert.False(t, resp.Capabilities.Delete)

	require.Len(t, activityRepo.Entries, 1)
	assert.Equal(t, models.ActivityUserCreated, activityRepo.Entries[0].Kind)
}

func TestUserService_CreateUser_NonAdminForbidden(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{})

	sess := adminSession()
	sess.Role = models.RoleManager

	_, err := svc.CreateUser(context.Background(), sess, CreateUserInput{
		Username: "jdoe", Email: "jdoe@example.com", Password: "Password123", Role: models.RoleUser,
	}, "10.0.0.1")

	assert.Equal(t, models.ErrForbidden, err)
}

func TestUserService_CreateUser_DuplicateUsername(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	})

	_, err := svc.CreateUser(context.Background(), adminSession(), CreateUserInput{
		Username: "jdoe", Email: "jdoe@example.com", Password: "Password123", Role: models.RoleUser,
	}, "10.0.0.1")

	assert.Equal(t, models.ErrConflict, err)
}

func TestUserService_CreateUser_WeakPassword(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{})

	_, err := svc.CreateUser(context.Background(), adminSession(), CreateUserInput{
		Username: "jdoe", Email: "jdoe@example.com", Password: "short", Role: models.RoleUser,
	}, "10.0.0.1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserService_CreateUser_InvalidRole(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{})

	_, err := svc.CreateUser(context.Background(), adminSession(), CreateUserInput{
		Username: "jdoe", Email: "jdoe@example.com", Password: "Password123", Role: "superuser",
	}, "10.0.0.1")

	assert.Equal(t, models.ErrBadRequest, err)
}

func TestUserService_UpdatePermissions_Success(t *testing.T) {
	var gotCaps models.Capabilities
	svc, activityRepo := newUserServiceFixture(&MockUserRepository{
		UpdatePermissionsFunc: func(ctx context.Context, id string, caps models.Capabilities, role string) (*models.User, error) {
			gotCaps = caps
			return &models.User{ID: id, Username: "jdoe", Role: role, Capabilities: caps, CreatedAt: time.Now()}, nil
		},
	})

	caps := models.Capabilities{View: true, Delete: true}
	resp, err := svc.UpdatePermissions(context.Background(), adminSession(), "user456", caps, models.RoleManager, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, caps, gotCaps)
	assert.Equal(t, models.RoleManager, resp.Role)

	require.Len(t, activityRepo.Entries, 1)
	assert.Equal(t, models.ActivityUserUpdated, activityRepo.Entries[0].Kind)
}

func TestUserService_AccountMutationsEmitAccountAudit(t *testing.T) {
	var buf bytes.Buffer
	opsLogger := slog.New(slog.NewJSONHandler(&buf, nil))

	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user456"
			user.CreatedAt = time.Now()
			return user, nil
		},
		UpdatePermissionsFunc: func(ctx context.Context, id string, caps models.Capabilities, role string) (*models.User, error) {
			return &models.User{ID: id, Username: "jdoe", Role: role, Capabilities: caps, CreatedAt: time.Now()}, nil
		},
	}
	audit := NewAuditService(&MockActivityLogRepository{}, &MockAccessLogRepository{}, opsLogger, pkglogger.NewAuditLogger(opsLogger))
	svc := NewUserService(repo, audit, opsLogger, pkglogger.NewAuditLogger(opsLogger))

	input := CreateUserInput{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		Password:     "Password123",
		FullName:     "John Doe",
		Role:         models.RoleUser,
		Capabilities: models.Capabilities{View: true},
	}
	_, err := svc.CreateUser(context.Background(), adminSession(), input, "10.0.0.1")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"audit_type":"account"`)
	assert.Contains(t, out, `"event_type":"user_created"`)
	assert.Contains(t, out, `"created_by":"admin1"`)

	buf.Reset()
	_, err = svc.UpdatePermissions(context.Background(), adminSession(), "user456",
		models.Capabilities{View: true, Delete: true}, models.RoleManager, "10.0.0.1")
	require.NoError(t, err)

	out = buf.String()
	assert.Contains(t, out, `"event_type":"permissions_updated"`)
	assert.Contains(t, out, `"updated_by":"admin1"`)
}

func TestUserService_UpdatePermissions_NotFound(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{
		UpdatePermissionsFunc: func(ctx context.Context, id string, caps models.Capabilities, role string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	})

	_, err := svc.UpdatePermissions(context.Background(), adminSession(), "missing", models.Capabilities{}, models.RoleUser, "10.0.0.1")
	assert.Equal(t, models.ErrNotFound, err)
}

func TestUserService_ListUsers_ManagerAllowed(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{
		ListFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			return []*models.User{
				{ID: "u1", Username: "a", CreatedAt: time.Now()},
				{ID: "u2", Username: "b", CreatedAt: time.Now()},
			}, nil
		},
	})

	sess := adminSession()
	sess.Role = models.RoleManager

	users, err := svc.ListUsers(context.Background(), sess, 50, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserService_ListUsers_RegularUserForbidden(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{})

	sess := adminSession()
	sess.Role = models.RoleUser

	_, err := svc.ListUsers(context.Background(), sess, 50, 0)
	assert.Equal(t, models.ErrForbidden, err)
}

func TestUserService_GetUser_SelfAllowed(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Username: "jdoe", CreatedAt: time.Now()}, nil
		},
	})

	sess := &models.Session{UserID: "user456", Role: models.RoleUser}

	resp, err := svc.GetUser(context.Background(), sess, "user456")
	require.NoError(t, err)
	assert.Equal(t, "user456", resp.ID)
}

func TestUserService_GetUser_OtherUserForbidden(t *testing.T) {
	svc, _ := newUserServiceFixture(&MockUserRepository{})

	sess := &models.Session{UserID: "user456", Role: models.RoleUser}

	_, err := svc.GetUser(context.Background(), sess, "someone-else")
	assert.Equal(t, models.ErrForbidden, err)
}
