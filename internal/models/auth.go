package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token types issued by the token manager.
const (
	TokenTypePending = "pending" // credentials verified, OTP outstanding
	TokenTypeSession = "session" // fully authenticated
)

// TokenClaims are carried by both pending-identity and session tokens.
// Role and Capabilities are populated only on session tokens and represent
// the snapshot taken when the OTP validated.
type TokenClaims struct {
	Type         string       `json:"type"`
	UserID       string       `json:"user_id"`
	Username     string       `json:"username,omitempty"`
	Role         string       `json:"role,omitempty"`
	Capabilities Capabilities `json:"capabilities,omitempty"`
	jwt.RegisteredClaims
}

// Session converts session-token claims into the identity value passed to
// every guarded operation.
func (c *TokenClaims) Session() *Session {
	return &Session{
		UserID:       c.UserID,
		Username:     c.Username,
		Role:         c.Role,
		Capabilities: c.Capabilities,
	}
}
