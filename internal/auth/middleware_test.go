package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, tm *TokenManager) http.Handler {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return SessionMiddleware(tm)(inner)
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)
	token, err := tm.GenerateSessionToken(testUser())
	require.NoError(t, err)

	var got *models.Session
	handler := SessionMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSessionFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/documents", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.True(t, got.Can(models.CapView))
}

func TestSessionMiddleware_MissingHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)
	handler := newTestHandler(t, tm)

	r := httptest.NewRequest("GET", "/documents", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddleware_MalformedHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)
	handler := newTestHandler(t, tm)

	r := httptest.NewRequest("GET", "/documents", nil)
	r.Header.Set("Authorization", "Token abcdef")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddleware_PendingTokenRejected(t *testing.T) {
	tm := NewTokenManager(testSecret, 10*time.Minute, 8*time.Hour)
	pending, err := tm.GeneratePendingToken("user-1")
	require.NoError(t, err)

	handler := newTestHandler(t, tm)

	r := httptest.NewRequest("GET", "/documents", nil)
	r.Header.Set("Authorization", "Bearer "+pending)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetSessionFromContext_Unauthenticated(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	assert.Nil(t, GetSessionFromContext(r))
}
