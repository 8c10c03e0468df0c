package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/companyhub/company-api/internal/auth"
	"github.com/companyhub/company-api/internal/company"
	"github.com/companyhub/company-api/internal/config"
	"github.com/companyhub/company-api/internal/httputil"
	"github.com/companyhub/company-api/internal/logging"
	"github.com/companyhub/company-api/internal/metrics"
	"github.com/companyhub/company-api/internal/ratelimit"
)

// RouterDeps bundles everything the router mounts.
type RouterDeps struct {
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	CompanyHandler *company.Handler
	GuestLimiter   ratelimit.Limiter
	Registry       *prometheus.Registry
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps RouterDeps, logger *logging.Logger) *chi.Mux {
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
	r.Use(metrics.Middleware)            // Prometheus request metrics
	r.Use(middleware.Compress(5))        // Compress responses

	// Operational routes
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger ui enabled", "path", "/swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// Guest auth routes, rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(deps.GuestLimiter))
			r.Post("/auth/register", deps.AuthHandler.Register)
			r.Post("/auth/verify-user", deps.AuthHandler.VerifyUser)
			r.Post("/auth/resend-otp", deps.AuthHandler.ResendOTP)
			r.Post("/auth/login", deps.AuthHandler.Login)
		})

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Get("/auth/auth-user", deps.AuthHandler.AuthUser)
			r.Post("/auth/logout", deps.AuthHandler.Logout)

			r.Get("/companies", deps.CompanyHandler.List)
			r.Post("/companies", deps.CompanyHandler.Create)
			r.Get("/companies/{companyId}", deps.CompanyHandler.Details)
			r.Put("/companies/{companyId}", deps.CompanyHandler.Update)
			r.Delete("/companies/{companyId}", deps.CompanyHandler.Delete)
		})
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
