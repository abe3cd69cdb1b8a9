package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gochapel/identity-service/internal/auth"
	"github.com/gochapel/identity-service/internal/config"
	"github.com/gochapel/identity-service/internal/httputil"
	"github.com/gochapel/identity-service/internal/logging"
	"github.com/gochapel/identity-service/internal/user"
)

// NewRouter creates and configures the HTTP router. The authentication
// gate and the authorization policy run on every route, in that order, so
// handlers only ever see requests the policy allowed.
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	gate *auth.Middleware,
	policy *auth.Policy,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Identity pipeline: gate attaches the verified identity (or nothing),
	// policy turns absence or wrong role into 401/403
	r.Use(gate.Authenticate)
	r.Use(policy.Enforce)

	// Public routes
	r.Get("/health", handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	// Authenticated self-service routes
	r.Route("/user", func(r chi.Router) {
		r.Get("/me", userHandler.Me)
		r.Put("/me/password", userHandler.UpdatePassword)
		r.Put("/me/update", userHandler.UpdateDetails)
	})

	// Admin-only routes
	r.Route("/admin", func(r chi.Router) {
		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Put("/users/{id}", userHandler.UpdateUser)
		r.Delete("/users/{id}", userHandler.DeleteUser)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
