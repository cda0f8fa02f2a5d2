// Package http wires the chi router: public catalog and contact form,
// authenticated purchase flow, admin console and ops endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/pkg/health"
	"github.com/davybookzone/server/pkg/middleware"
)

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	Auth      *AuthHandler
	Books     *BookHandler
	Purchases *PurchaseHandler
	Messages  *MessageHandler
	Admin     *AdminHandler

	Health        *health.Handler
	TokenValidate middleware.TokenValidator
	Logger        *slog.Logger

	ServiceName        string
	CORSOrigins        []string
	AuthRateLimitRPS   int
	AuthRateLimitBurst int
	TracingEnabled     bool
}

// NewRouter builds the full HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSOrigins
	}

	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.TracingEnabled {
		r.Use(middleware.Tracing(cfg.ServiceName))
	}
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	authRate := middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, cfg.Logger)
	requireAuth := middleware.Auth(cfg.TokenValidate)
	requireAdmin := middleware.RequireRole(domain.RoleAdmin)

	// Ops endpoints sit outside /api.
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Auth.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.With(authRate).Post("/auth/register", cfg.Auth.Register)
			r.With(authRate).Post("/auth/login", cfg.Auth.Login)
			r.With(requireAuth).Get("/auth/me", cfg.Auth.Me)
			r.With(requireAuth).Put("/auth/profile", cfg.Auth.UpdateProfile)
			r.With(requireAuth).Put("/auth/change-password", cfg.Auth.ChangePassword)
		})

		// Public catalog. Short Cache-Control on the read endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))
			r.Get("/books", cfg.Books.List)
			r.Get("/books/categories", cfg.Books.Categories)
			r.Get("/books/{id}", cfg.Books.Get)
		})
		r.Post("/books/{id}/purchase", cfg.Books.RecordPurchase)

		// Admin catalog writes use multipart bodies.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/books", cfg.Books.Create)
			r.Put("/books/{id}", cfg.Books.Update)
			r.Delete("/books/{id}", cfg.Books.Delete)
		})

		// Contact form.
		r.With(ContentTypeJSON).Post("/messages", cfg.Messages.Create)

		// Purchases. The notify webhook is called by the payment provider
		// and carries no user token. The {id} param is a book id on
		// initiate and a transaction id everywhere else.
		r.HandleFunc("/purchases/{id}/notify", cfg.Purchases.Notify)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/purchases/history", cfg.Purchases.History)
			r.With(ContentTypeJSON).Post("/purchases/{id}", cfg.Purchases.Initiate)
			r.HandleFunc("/purchases/{id}/verify", cfg.Purchases.Verify)
			r.Get("/purchases/{id}/response", cfg.Purchases.GetResponse)
		})

		// Admin console.
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)

			r.Get("/stats", cfg.Admin.Stats)

			r.Get("/users", cfg.Admin.ListUsers)
			r.With(ContentTypeJSON).Put("/users/{id}", cfg.Admin.UpdateUser)
			r.Delete("/users/{id}", cfg.Admin.DeleteUser)
			r.Put("/users/{id}/toggle-status", cfg.Admin.ToggleUserStatus)

			r.Get("/books", cfg.Books.AdminList)
			r.Put("/books/{id}/toggle-status", cfg.Books.ToggleActive)

			r.Get("/messages", cfg.Messages.List)
			r.Put("/messages/{id}/read", cfg.Messages.MarkRead)
			r.With(ContentTypeJSON).Post("/messages/{id}/reply", cfg.Messages.Reply)

			r.Get("/purchases", cfg.Admin.ListPurchases)

			r.Get("/settings", cfg.Admin.GetSettings)
			r.With(ContentTypeJSON).Put("/settings", cfg.Admin.UpdateSettings)
		})
	})

	return r
}
