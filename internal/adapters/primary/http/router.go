package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
)

// RouterConfig collects the handlers and middleware the API is assembled
// from. Nil optional fields switch the matching feature off.
type RouterConfig struct {
	Logger *slog.Logger
	Tokens mw.TokenValidator

	Health    *HealthHandler
	Analytics *AnalyticsHandler
	Export    *ExportHandler
	Admin     *AdminHandler
	WebSocket http.Handler

	// Optional
	CORSOrigins    []string
	CORSMaxAge     int
	RateLimiter    *mw.RateLimiter
	AdminLimiter   *mw.RateLimitByKey
	Metrics        mw.HTTPObserver
	MetricsHandler http.Handler
}

// NewRouter wires every route of the insights API.
func NewRouter(rc RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(rc.Logger))
	r.Use(mw.RecoveryLogger(rc.Logger))
	if rc.Metrics != nil {
		r.Use(mw.Metrics(rc.Metrics))
	}
	if len(rc.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rc.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
			ExposedHeaders:   []string{mw.RequestIDHeader, "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           rc.CORSMaxAge,
		}))
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	rc.Health.RegisterRoutes(r)
	if rc.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", rc.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket route (the optional token is checked inside the handler)
		if rc.WebSocket != nil {
			r.Method(http.MethodGet, "/ws", rc.WebSocket)
		}

		r.Group(func(r chi.Router) {
			if rc.RateLimiter != nil {
				r.Use(rc.RateLimiter.Middleware)
			}
			rc.Analytics.RegisterRoutes(r)
			r.Route("/export", rc.Export.RegisterRoutes)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.JWTMiddleware(rc.Tokens))
			r.Use(mw.RequireAdmin)
			if rc.AdminLimiter != nil {
				r.Use(rc.AdminLimiter.SubjectMiddleware)
			}
			rc.Admin.RegisterRoutes(r)
		})
	})

	return r
}
