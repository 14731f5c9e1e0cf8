package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EmerzonBasa/crld/internal/handlers"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/internal/services"
	"github.com/stretchr/testify/assert"
)

func adminTestSession() *models.Session {
	return &models.Session{UserID: "admin1", Username: "admin", Role: models.RoleAdmin}
}

func TestCreateUser_Success(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		CreateUserFunc: func(ctx context.Context, sess *models.Session, input services.CreateUserInput, origin string) (*services.UserResponse, error) {
			assert.Equal(t, "jdoe", input.Username)
			assert.True(t, input.Capabilities.View)
			assert.False(t, input.Capabilities.Delete)
			return &services.UserResponse{ID: "user456", Username: input.Username, Role: input.Role}, nil
		},
	}

	handler := handlers.NewUserHandler(mockUsers, nil)
	req := handlers.NewTestRequest(t, "POST", "/users", handlers.CreateUserRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "Password123",
		FullName: "John Doe",
		Role:     "user",
		Capabilities: handlers.CapabilitiesRequest{
			View: true, Upload: true,
		},
	})
	req = handlers.WithSession(req, adminTestSession())

	w := httptest.NewRecorder()
	handler.CreateUser(w, req)

	var resp services.UserResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "user456", resp.ID)
}

func TestCreateUser_InvalidRole(t *testing.T) {
	handler := handlers.NewUserHandler(&handlers.MockUserService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/users", handlers.CreateUserRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "Password123",
		FullName: "John Doe",
		Role:     "superuser",
	})
	req = handlers.WithSession(req, adminTestSession())

	w := httptest.NewRecorder()
	handler.CreateUser(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestCreateUser_Conflict(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		CreateUserFunc: func(ctx context.Context, sess *models.Session, input services.CreateUserInput, origin string) (*services.UserResponse, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewUserHandler(mockUsers, nil)
	req := handlers.NewTestRequest(t, "POST", "/users", handlers.CreateUserRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "Password123",
		FullName: "John Doe",
		Role:     "user",
	})
	req = handlers.WithSession(req, adminTestSession())

	w := httptest.NewRecorder()
	handler.CreateUser(w, req)

	handlers.AssertErrorResponse(t, w, 409, "conflict")
}

func TestCreateUser_Forbidden(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		CreateUserFunc: func(ctx context.Context, sess *models.Session, input services.CreateUserInput, origin string) (*services.UserResponse, error) {
			return nil, models.ErrForbidden
		},
	}

	handler := handlers.NewUserHandler(mockUsers, nil)
	req := handlers.NewTestRequest(t, "POST", "/users", handlers.CreateUserRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "Password123",
		FullName: "John Doe",
		Role:     "user",
	})
	req = handlers.WithSession(req, &models.Session{UserID: "u1", Role: models.RoleUser})

	w := httptest.NewRecorder()
	handler.CreateUser(w, req)

	handlers.AssertErrorResponse(t, w, 403, "forbidden")
}

func TestUpdatePermissions_Success(t *testing.T) {
	var gotCaps models.Capabilities
	mockUsers := &handlers.MockUserService{
		UpdatePermissionsFunc: func(ctx context.Context, sess *models.Session, id string, caps models.Capabilities, role string, origin string) (*services.UserResponse, error) {
			gotCaps = caps
			return &services.UserResponse{ID: id, Role: role, Capabilities: caps}, nil
		},
	}

	handler := handlers.NewUserHandler(mockUsers, nil)
	req := handlers.NewTestRequest(t, "PUT", "/users/user456/permissions", handlers.UpdatePermissionsRequest{
		Role: "manager",
		Capabilities: handlers.CapabilitiesRequest{
			View: true, Delete: true, Print: true,
		},
	})
	req = handlers.WithSession(req, adminTestSession())
	req = withURLParam(req, "id", "user456")

	w := httptest.NewRecorder()
	handler.UpdatePermissions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotCaps.View)
	assert.True(t, gotCaps.Delete)
	assert.False(t, gotCaps.Upload)
}

func TestListUsers_Success(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		ListUsersFunc: func(ctx context.Context, sess *models.Session, limit, offset int) ([]*services.UserResponse, error) {
			return []*services.UserResponse{
				{ID: "u1", Username: "a"},
				{ID: "u2", Username: "b"},
			}, nil
		},
	}

	handler := handlers.NewUserHandler(mockUsers, nil)
	req := httptest.NewRequest("GET", "/users", nil)
	req = handlers.WithSession(req, adminTestSession())

	w := httptest.NewRecorder()
	handler.ListUsers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u2")
}
