// Package http provides HTTP routing and middleware configuration
// for the gallery API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/cabellfineart/gallery-api/internal/middleware"
	"github.com/cabellfineart/gallery-api/internal/telemetry"
	"github.com/cabellfineart/gallery-api/internal/token"
)

// RouterOptions configures the cross-cutting behavior of the router.
type RouterOptions struct {
	Logger   *zap.Logger
	Reporter telemetry.Reporter
	// Verifier checks bearer tokens on protected routes.
	Verifier middleware.TokenVerifier
	// AllowedOrigins is the CORS allow-list; "*" allows any origin.
	AllowedOrigins []string
	// RateLimitRequests per RateLimitWindow are allowed per client IP on
	// /auth routes. Zero disables the limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Metrics, when set, instruments every request and MetricsHandler is
	// served at /metrics.
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
}

// NewRouter constructs and returns an HTTP handler that serves
// the gallery API.
//
// Routes:
//
//	POST   /auth/register        → authHandler.Register
//	POST   /auth/login           → authHandler.Login
//	POST   /auth/refresh         → authHandler.Refresh       (refresh token)
//	POST   /auth/verify-token    → authHandler.VerifyToken   (access token)
//	GET    /art/                 → artHandler.List
//	POST   /art/                 → artHandler.List
//	GET    /art/psalms-metadata  → psalmsHandler.Metadata
//	PUT    /art/, /art/add       → artHandler.Create         (access token)
//	POST   /art/update           → artHandler.Update         (access token)
//	DELETE /art/delete           → artHandler.Delete         (access token)
//	POST   /art/upload           → artHandler.Upload         (access token)
//	GET    /psalms/              → psalmsHandler.List
//	PUT    /psalms/, /psalms/add → psalmsHandler.Create      (access token)
//	POST   /psalms/update        → psalmsHandler.Update      (access token)
//	DELETE /psalms/delete        → psalmsHandler.Delete      (access token)
//	POST   /psalms/upload        → psalmsHandler.Upload      (access token)
//	GET    /healthcheck          → Healthcheck
//	GET    /metrics              → opts.MetricsHandler       (when metrics are enabled)
//
// Middleware chain (applied in order):
//  1. RequestID: tags each request for logs and reports
//  2. Recover: turns panics into 500 responses
//  3. WithRequestLogging: logs each request
//  4. Metrics: counts requests per route (when enabled)
//  5. CORS: applies the origin allow-list
func NewRouter(
	authHandler *AuthHandler,
	artHandler *ArtHandler,
	psalmsHandler *PsalmsHandler,
	opts RouterOptions,
) http.Handler {
	if opts.Reporter == nil {
		opts.Reporter = telemetry.Nop{}
	}
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.Recover(opts.Logger, opts.Reporter))
	r.Use(middleware.WithRequestLogging(opts.Logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	requireAccess := middleware.BearerAuth(opts.Verifier, token.Access)
	requireRefresh := middleware.BearerAuth(opts.Verifier, token.Refresh)

	r.Get("/healthcheck", Healthcheck)
	if opts.Metrics != nil && opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		}
		r.With(middleware.RequireJSON).Post("/register", authHandler.Register)
		r.With(middleware.RequireJSON).Post("/login", authHandler.Login)
		r.With(requireRefresh).Post("/refresh", authHandler.Refresh)
		r.With(requireAccess).Post("/verify-token", authHandler.VerifyToken)
	})

	r.Route("/art", func(r chi.Router) {
		r.Get("/", artHandler.List)
		r.Post("/", artHandler.List)
		r.Get("/psalms-metadata", psalmsHandler.Metadata)

		// Protected group: requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(requireAccess)
			r.With(middleware.RequireJSON).Put("/", artHandler.Create)
			r.With(middleware.RequireJSON).Put("/add", artHandler.Create)
			r.With(middleware.RequireJSON).Post("/update", artHandler.Update)
			r.With(middleware.RequireJSON).Delete("/delete", artHandler.Delete)
			r.Post("/upload", artHandler.Upload)
		})
	})

	r.Route("/psalms", func(r chi.Router) {
		r.Get("/", psalmsHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(requireAccess)
			r.With(middleware.RequireJSON).Put("/", psalmsHandler.Create)
			r.With(middleware.RequireJSON).Put("/add", psalmsHandler.Create)
			r.With(middleware.RequireJSON).Post("/update", psalmsHandler.Update)
			r.With(middleware.RequireJSON).Delete("/delete", psalmsHandler.Delete)
			r.Post("/upload", psalmsHandler.Upload)
		})
	})

	return r
}
