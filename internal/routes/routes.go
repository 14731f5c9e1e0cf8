package routes

import (
	"github.com/EmerzonBasa/crld/internal/auth"
	"github.com/EmerzonBasa/crld/internal/handlers"
	"github.com/EmerzonBasa/crld/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	documentHandler *handlers.DocumentHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
) {
	// Both login phases share the same per-IP budget
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/verify-otp", authHandler.VerifyOTP)

	// Protected routes - session token required
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(tokenManager))

		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/documents", documentHandler.List)
		r.Post("/documents", documentHandler.Upload)
		r.Get("/documents/recycle-bin", documentHandler.RecycleBin)
		r.Get("/documents/{id}/file", documentHandler.File)
		r.Post("/documents/{id}/delete", documentHandler.Delete)
		r.Post("/documents/{id}/restore", documentHandler.Restore)
		r.Post("/documents/{id}/permanent-delete", documentHandler.PermanentDelete)

		r.Get("/dashboard", documentHandler.Dashboard)
		r.Get("/lookups/companies", documentHandler.Companies)
		r.Get("/lookups/categories", documentHandler.Categories)

		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Post("/users", userHandler.CreateUser)
		r.Put("/users/{id}/permissions", userHandler.UpdatePermissions)
	})
}
