package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/EmerzonBasa/crld/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// sessionContextKey is the key for storing the authenticated session in context
	sessionContextKey contextKey = "session"
)

// SessionMiddleware validates session tokens and injects the authenticated
// session into the request context. Pending-identity tokens are rejected
// here; they are only accepted by the OTP verification endpoint.
func SessionMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateSessionToken(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, claims.Session())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithSession returns a copy of ctx carrying the session, the same
// way SessionMiddleware stores it.
func ContextWithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// GetSessionFromContext retrieves the authenticated session set by
// SessionMiddleware, or nil if the request is unauthenticated.
func GetSessionFromContext(r *http.Request) *models.Session {
	sess, ok := r.Context().Value(sessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return sess
}
