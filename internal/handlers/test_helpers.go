package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/internal/services"
	pkghttp "github.com/EmerzonBasa/crld/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSession adds an authenticated session to the request context
func WithSession(req *http.Request, sess *models.Session) *http.Request {
	return req.WithContext(auth.ContextWithSession(req.Context(), sess))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	if target != nil {
		if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
			t.Fatalf("failed to decode response body: %v", err)
		}
	}
}

// AssertErrorResponse checks that response is an error with the given status and code
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	assert.Equal(t, expectedError, resp.Error)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc     func(ctx context.Context, username, password, origin string) (*services.LoginResponse, error)
	VerifyOTPFunc func(ctx context.Context, pendingToken, code, origin string) (*services.SessionResponse, error)
	LogoutFunc    func(ctx context.Context, sess *models.Session, origin string)
}

func (m *MockAuthService) Login(ctx context.Context, username, password, origin string) (*services.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password, origin)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, pendingToken, code, origin string) (*services.SessionResponse, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, pendingToken, code, origin)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Logout(ctx context.Context, sess *models.Session, origin string) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, sess, origin)
	}
}

// MockDocumentService implements DocumentServiceInterface for testing
type MockDocumentService struct {
	UploadFunc          func(ctx context.Context, sess *models.Session, meta services.UploadMetadata, files []services.UploadFile, origin string) (*services.UploadResult, error)
	DeleteFunc          func(ctx context.Context, sess *models.Session, id, origin string) error
	RestoreFunc         func(ctx context.Context, sess *models.Session, id, origin string) error
	PermanentDeleteFunc func(ctx context.Context, sess *models.Session, id, origin string) error
	ListActiveFunc      func(ctx context.Context, sess *models.Session, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error)
	ListDeletedFunc     func(ctx context.Context, sess *models.Session, limit, offset int) ([]*models.Document, error)
	OpenFileFunc        func(ctx context.Context, sess *models.Session, id, action, origin string) (*models.Document, io.ReadCloser, error)
	GetDashboardFunc    func(ctx context.Context, sess *models.Session) (*services.Dashboard, error)
	ListCompaniesFunc   func(ctx context.Context, sess *models.Session) ([]*models.Company, error)
	ListCategoriesFunc  func(ctx context.Context, sess *models.Session) ([]*models.Category, error)
}

func (m *MockDocumentService) Upload(ctx context.Context, sess *models.Session, meta services.UploadMetadata, files []services.UploadFile, origin string) (*services.UploadResult, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, sess, meta, files, origin)
	}
	return &services.UploadResult{}, nil
}

func (m *MockDocumentService) Delete(ctx context.Context, sess *models.Session, id, origin string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sess, id, origin)
	}
	return nil
}

func (m *MockDocumentService) Restore(ctx context.Context, sess *models.Session, id, origin string) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, sess, id, origin)
	}
	return nil
}

func (m *MockDocumentService) PermanentDelete(ctx context.Context, sess *models.Session, id, origin string) error {
	if m.PermanentDeleteFunc != nil {
		return m.PermanentDeleteFunc(ctx, sess, id, origin)
	}
	return nil
}

func (m *MockDocumentService) ListActive(ctx context.Context, sess *models.Session, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, sess, filter, limit, offset)
	}
	return []*models.Document{}, nil
}

func (m *MockDocumentService) ListDeleted(ctx context.Context, sess *models.Session, limit, offset int) ([]*models.Document, error) {
	if m.ListDeletedFunc != nil {
		return m.ListDeletedFunc(ctx, sess, limit, offset)
	}
	return []*models.Document{}, nil
}

func (m *MockDocumentService) OpenFile(ctx context.Context, sess *models.Session, id, action, origin string) (*models.Document, io.ReadCloser, error) {
	if m.OpenFileFunc != nil {
		return m.OpenFileFunc(ctx, sess, id, action, origin)
	}
	return nil, nil, models.ErrNotFound
}

func (m *MockDocumentService) GetDashboard(ctx context.Context, sess *models.Session) (*services.Dashboard, error) {
	if m.GetDashboardFunc != nil {
		return m.GetDashboardFunc(ctx, sess)
	}
	return &services.Dashboard{Stats: &models.DashboardStats{}}, nil
}

func (m *MockDocumentService) ListCompanies(ctx context.Context, sess *models.Session) ([]*models.Company, error) {
	if m.ListCompaniesFunc != nil {
		return m.ListCompaniesFunc(ctx, sess)
	}
	return []*models.Company{}, nil
}

func (m *MockDocumentService) ListCategories(ctx context.Context, sess *models.Session) ([]*models.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx, sess)
	}
	return []*models.Category{}, nil
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	ListUsersFunc         func(ctx context.Context, sess *models.Session, limit, offset int) ([]*services.UserResponse, error)
	GetUserFunc           func(ctx context.Context, sess *models.Session, id string) (*services.UserResponse, error)
	CreateUserFunc        func(ctx context.Context, sess *models.Session, input services.CreateUserInput, origin string) (*services.UserResponse, error)
	UpdatePermissionsFunc func(ctx context.Context, sess *models.Session, id string, caps models.Capabilities, role string, origin string) (*services.UserResponse, error)
}

func (m *MockUserService) ListUsers(ctx context.Context, sess *models.Session, limit, offset int) ([]*services.UserResponse, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, sess, limit, offset)
	}
	return []*services.UserResponse{}, nil
}

func (m *MockUserService) GetUser(ctx context.Context, sess *models.Session, id string) (*services.UserResponse, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, sess, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) CreateUser(ctx context.Context, sess *models.Session, input services.CreateUserInput, origin string) (*services.UserResponse, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, sess, input, origin)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) UpdatePermissions(ctx context.Context, sess *models.Session, id string, caps models.Capabilities, role string, origin string) (*services.UserResponse, error) {
	if m.UpdatePermissionsFunc != nil {
		return m.UpdatePermissionsFunc(ctx, sess, id, caps, role, origin)
	}
	return nil, models.ErrInternalServer
}
