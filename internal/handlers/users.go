package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/internal/services"
	pkghttp "github.com/EmerzonBasa/crld/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserServiceInterface defines the interface for user administration
type UserServiceInterface interface {
	ListUsers(ctx context.Context, sess *models.Session, limit, offset int) ([]*services.UserResponse, error)
	GetUser(ctx context.Context, sess *models.Session, id string) (*services.UserResponse, error)
	CreateUser(ctx context.Context, sess *models.Session, input services.CreateUserInput, origin string) (*services.UserResponse, error)
	UpdatePermissions(ctx context.Context, sess *models.Session, id string, caps models.Capabilities, role string, origin string) (*services.UserResponse, error)
}

// UserHandler handles user administration HTTP requests
type UserHandler struct {
	service  UserServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, ipConfig *pkghttp.IPConfig) *UserHandler {
	return &UserHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// CapabilitiesRequest mirrors the capability bits in request bodies.
type CapabilitiesRequest struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Upload bool `json:"upload"`
	Delete bool `json:"delete"`
	Print  bool `json:"print"`
}

func (c CapabilitiesRequest) toModel() models.Capabilities {
	return models.Capabilities{
		View:   c.View,
		Edit:   c.Edit,
		Upload: c.Upload,
		Delete: c.Delete,
		Print:  c.Print,
	}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username     string              `json:"username" validate:"required,min=3,max=64"`
	Email        string              `json:"email" validate:"required,email"`
	Password     string              `json:"password" validate:"required,min=8,max=128"`
	FullName     string              `json:"full_name" validate:"required,min=1,max=255"`
	Role         string              `json:"role" validate:"required,oneof=admin manager user"`
	Capabilities CapabilitiesRequest `json:"capabilities"`
}

// UpdatePermissionsRequest represents the request body for a permission change
type UpdatePermissionsRequest struct {
	Role         string              `json:"role" validate:"required,oneof=admin manager user"`
	Capabilities CapabilitiesRequest `json:"capabilities"`
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient permissions")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Username or email already in use")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "An error occurred")
	}
}

// ListUsers returns the account roster.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	limit, offset := parsePagination(r)

	users, err := h.service.ListUsers(r.Context(), sess, limit, offset)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// GetUser returns one account.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUser(r.Context(), sess, id)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// CreateUser creates a new account.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	input := services.CreateUserInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Role:         req.Role,
		Capabilities: req.Capabilities.toModel(),
	}

	user, err := h.service.CreateUser(r.Context(), sess, input, origin)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, user)
}

// UpdatePermissions replaces a user's role and capability bits.
func (h *UserHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSessionFromContext(r)
	origin := pkghttp.ExtractClientIP(r, h.ipConfig)
	id := chi.URLParam(r, "id")

	var req UpdatePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdatePermissions(r.Context(), sess, id, req.Capabilities.toModel(), req.Role, origin)
	if err != nil {
		writeUserError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}
