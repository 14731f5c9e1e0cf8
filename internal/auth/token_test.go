package auth

import (
	"testing"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

func testUser() *models.User {
	return &models.User{
		ID:       "user-1",
		Username: "alice",
		Role:     models.RoleUser,
		Capabilities: models.Capabilities{
			View:   true,
			Upload: true,
		},
	}
}

func TestTokenManager_PendingToken_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)

	tokenString, err := tm.GeneratePendingToken("user-1")
	require.NoError(t, err)

	claims, err := tm.ValidatePendingToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypePending, claims.Type)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Empty(t, claims.Role)
	assert.False(t, claims.Capabilities.View)
}

func TestTokenManager_SessionToken_CarriesCapabilitySnapshot(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)

	tokenString, err := tm.GenerateSessionToken(testUser())
	require.NoError(t, err)

	claims, err := tm.ValidateSessionToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeSession, claims.Type)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.True(t, claims.Capabilities.Has(models.CapView))
	assert.True(t, claims.Capabilities.Has(models.CapUpload))
	assert.False(t, claims.Capabilities.Has(models.CapDelete))
}

func TestTokenManager_TypeConfusion_Rejected(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)

	pending, err := tm.GeneratePendingToken("user-1")
	require.NoError(t, err)
	session, err := tm.GenerateSessionToken(testUser())
	require.NoError(t, err)

	_, err = tm.ValidateSessionToken(pending)
	assert.Error(t, err)

	_, err = tm.ValidatePendingToken(session)
	assert.Error(t, err)
}

func TestTokenManager_ExpiredPendingToken(t *testing.T) {
	tm := NewTokenManager(testSecret, -1*time.Minute, 8*time.Hour)

	tokenString, err := tm.GeneratePendingToken("user-1")
	require.NoError(t, err)

	_, err = tm.ValidatePendingToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)
	other := NewTokenManager("another-secret-32-characters-long", 10*time.Minute, 8*time.Hour)

	tokenString, err := tm.GenerateSessionToken(testUser())
	require.NoError(t, err)

	_, err = other.ValidateSessionToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_GarbageToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)

	_, err := tm.ValidateToken("not.a.token")
	assert.Error(t, err)
}
