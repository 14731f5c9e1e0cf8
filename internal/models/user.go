package models

import (
	"time"
)

// Roles gate administrative actions only; day-to-day document operations are
// governed by the capability bits, which are independent of role.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// Capability is a named permission bit checked before every guarded operation.
type Capability string

const (
	CapView   Capability = "view"
	CapEdit   Capability = "edit"
	CapUpload Capability = "upload"
	CapDelete Capability = "delete"
	CapPrint  Capability = "print"
)

// Capabilities holds the five independent permission bits for a user.
type Capabilities struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Upload bool `json:"upload"`
	Delete bool `json:"delete"`
	Print  bool `json:"print"`
}

// Has reports whether the named capability bit is set.
func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case CapView:
		return c.View
	case CapEdit:
		return c.Edit
	case CapUpload:
		return c.Upload
	case CapDelete:
		return c.Delete
	case CapPrint:
		return c.Print
	default:
		return false
	}
}

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         string // "admin", "manager", "user"
	Capabilities Capabilities
	Active       bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the authenticated identity established after OTP verification.
// Capabilities are a snapshot taken at login time; changes made while the
// session is live take effect at the next authentication.
type Session struct {
	UserID       string
	Username     string
	Role         string
	Capabilities Capabilities
}

// Can reports whether the session's capability snapshot allows cap.
func (s *Session) Can(cap Capability) bool {
	return s.Capabilities.Has(cap)
}

// IsAdmin reports whether the session holds the admin role.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// CanManageUsers reports whether the session may view the user roster.
// Mutating user records additionally requires the admin role.
func (s *Session) CanManageUsers() bool {
	return s.Role == RoleAdmin || s.Role == RoleManager
}
