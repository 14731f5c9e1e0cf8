package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	internalauth "github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/handlers"
	"github.com/EmerzonBasa/crld/internal/repositories"
	"github.com/EmerzonBasa/crld/internal/routes"
	"github.com/EmerzonBasa/crld/internal/services"
	"github.com/EmerzonBasa/crld/internal/storage"
	pkghttp "github.com/EmerzonBasa/crld/pkg/http"
	pkglogger "github.com/EmerzonBasa/crld/pkg/logger"
)

const testJWTSecret = "integration-test-secret-key-0123456789abcdef"

// SentEmail is a captured OTP email.
type SentEmail struct {
	To   string
	Code string
}

// CaptureEmailService records OTP emails instead of sending them.
type CaptureEmailService struct {
	mu   sync.Mutex
	sent []SentEmail
}

func (c *CaptureEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, SentEmail{To: email, Code: code})
	return nil
}

// LastCode returns the code from the most recently captured email.
func (c *CaptureEmailService) LastCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1].Code
}

// TestServer wires the full handler stack against a real database with a
// captured email service and a temp-dir file store.
type TestServer struct {
	Server    *httptest.Server
	DB        *TestDB
	Email     *CaptureEmailService
	UploadDir string
}

// NewTestServer builds the complete router the same way cmd/api does,
// swapping SES for the capture service.
func NewTestServer(t *testing.T, db *TestDB) *TestServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLogger := pkglogger.NewAuditLogger(logger)

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	userRepo := repositories.NewUserRepository(db.DB)
	otpRepo := repositories.NewOTPRepository(db.DB)
	documentRepo := repositories.NewDocumentRepository(db.DB)
	lookupRepo := repositories.NewLookupRepository(db.DB)
	activityRepo := repositories.NewActivityLogRepository(db.DB)
	accessRepo := repositories.NewAccessLogRepository(db.DB)

	tokenManager := internalauth.NewTokenManager(testJWTSecret, 10*time.Minute, 8*time.Hour)
	timing := internalauth.NewTimingDelay(internalauth.TimingConfig{})

	email := &CaptureEmailService{}
	auditService := services.NewAuditService(activityRepo, accessRepo, logger, auditLogger)
	otpService := services.NewOTPService(otpRepo, email, 10*time.Minute, logger)
	authService := services.NewAuthService(userRepo, otpService, auditService, tokenManager, timing, logger, auditLogger)
	documentService := services.NewDocumentService(documentRepo, lookupRepo, store, auditService, 50<<20, logger)
	userService := services.NewUserService(userRepo, auditService, logger, auditLogger)

	ipConfig := &pkghttp.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	documentHandler := handlers.NewDocumentHandler(documentService, ipConfig)
	userHandler := handlers.NewUserHandler(userService, ipConfig)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	routes.RegisterRoutes(router, authHandler, documentHandler, userHandler, tokenManager)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:    server,
		DB:        db,
		Email:     email,
		UploadDir: uploadDir,
	}
}

// PostJSON sends a JSON POST. An empty token omits the Authorization header.
func (ts *TestServer) PostJSON(t *testing.T, path string, body any, token string) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	return resp
}

// Get sends a GET with the given session token.
func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	return resp
}

// UploadDocuments posts a multipart upload with the given form fields and
// one file part per entry in files (name -> content).
func (ts *TestServer) UploadDocuments(t *testing.T, token string, fields map[string]string, files map[string][]byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", key, err)
		}
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write file content: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/documents", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	return resp
}

// DecodeJSON decodes the response body into out and closes it.
func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// LoginAndVerify runs both authentication phases and returns the session token.
func (ts *TestServer) LoginAndVerify(t *testing.T, username, password string) string {
	t.Helper()

	resp := ts.PostJSON(t, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("login failed with status %d: %s", resp.StatusCode, body)
	}

	var loginResp struct {
		PendingToken string `json:"pending_token"`
	}
	DecodeJSON(t, resp, &loginResp)

	code := ts.Email.LastCode()
	if code == "" {
		t.Fatal("no OTP email was captured")
	}

	resp = ts.PostJSON(t, "/auth/verify-otp", map[string]string{
		"pending_token": loginResp.PendingToken,
		"code":          code,
	}, "")
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("otp verification failed with status %d: %s", resp.StatusCode, body)
	}

	var sessionResp struct {
		Token string `json:"token"`
	}
	DecodeJSON(t, resp, &sessionResp)
	if sessionResp.Token == "" {
		t.Fatal("session token missing from verify response")
	}
	return sessionResp.Token
}
