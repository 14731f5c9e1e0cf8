package auth

import (
	"fmt"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and validates the two token kinds used by the login
// flow: a pending-identity token (credentials verified, OTP outstanding) and
// a session token carrying the capability snapshot.
type TokenManager struct {
	secret        string
	pendingExpiry time.Duration
	sessionExpiry time.Duration
}

// NewTokenManager creates a new TokenManager. pendingExpiry should match the
// OTP TTL so an abandoned login flow expires with its challenge.
func NewTokenManager(secret string, pendingExpiry, sessionExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:        secret,
		pendingExpiry: pendingExpiry,
		sessionExpiry: sessionExpiry,
	}
}

// GeneratePendingToken creates the short-lived token held between password
// verification and OTP validation. It carries no role or capabilities.
func (tm *TokenManager) GeneratePendingToken(userID string) (string, error) {
	claims := &models.TokenClaims{
		Type:   models.TokenTypePending,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.pendingExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign pending token: %w", err)
	}

	return tokenString, nil
}

// GenerateSessionToken creates the authenticated session token. Role and
// capabilities are snapshotted into the claims; later permission changes
// apply at the next login.
func (tm *TokenManager) GenerateSessionToken(user *models.User) (string, error) {
	claims := &models.TokenClaims{
		Type:         models.TokenTypeSession,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		Capabilities: user.Capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.sessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypePending && claims.Type != models.TokenTypeSession {
		return nil, fmt.Errorf("invalid token: unknown type %q", claims.Type)
	}

	return claims, nil
}

// ValidatePendingToken verifies the token and rejects anything but a
// pending-identity token. Session tokens cannot stand in for a pending
// identity, and vice versa.
func (tm *TokenManager) ValidatePendingToken(tokenString string) (*models.TokenClaims, error) {
	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != models.TokenTypePending {
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}

// ValidateSessionToken verifies the token and rejects anything but a session token.
func (tm *TokenManager) ValidateSessionToken(tokenString string) (*models.TokenClaims, error) {
	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != models.TokenTypeSession {
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}
