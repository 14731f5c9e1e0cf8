package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/internal/services"
	pkghttp "github.com/EmerzonBasa/crld/pkg/http"
)

// AuthServiceInterface defines the interface for the login flow
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password, origin string) (*services.LoginResponse, error)
	VerifyOTP(ctx context.Context, pendingToken, code, origin string) (*services.SessionResponse, error)
	Logout(ctx context.Context, sess *models.Session, origin string)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for the password phase
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest represents the request body for the code phase
type VerifyOTPRequest struct {
	PendingToken string `json:"pending_token" validate:"required"`
	Code         string `json:"code" validate:"required,len=6,numeric"`
}

// Login handles the first phase: username and password. On success the
// client holds a pending token and the user receives an emailed code.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)

	resp, err := h.service.Login(r.Context(), req.Username, req.Password, origin)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		case errors.Is(err, models.ErrDeliveryFailed):
			pkghttp.WriteBadGateway(w, "Could not deliver the verification code")
		default:
			pkghttp.WriteInternalError(w, "An error occurred during login")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// VerifyOTP handles the second phase: the emailed code together with the
// pending token, exchanged for a session token.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	origin := pkghttp.ExtractClientIP(r, h.ipConfig)

	resp, err := h.service.VerifyOTP(r.Context(), req.PendingToken, req.Code, origin)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOTPInvalid):
			pkghttp.WriteUnauthorized(w, "Invalid or expired verification code")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "An error occurred during verification")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Logout records the logout in the activity trail.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	if sess == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	origin := pkghttp.ExtractClientIP(r, h.ipConfig)
	h.service.Logout(r.Context(), sess, origin)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
