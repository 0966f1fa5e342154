// Package router sets up all HTTP routes and middleware chains for the
// tenantpress server. It organizes routes into the JSON API, the editor
// session surface, and the public tenant pages, with the custom-domain
// rewrite middleware in front of everything.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tenantpress/internal/handlers"
	"tenantpress/internal/middleware"
	"tenantpress/internal/tenant"
	"tenantpress/internal/token"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Tokens   *token.Store // nil disables the authenticated API
	Rewriter *tenant.Rewriter

	Auth    *handlers.Auth
	Sites   *handlers.Sites
	Domains *handlers.Domains
	Uploads *handlers.Uploads
	Editor  *handlers.Editor
	Public  *handlers.Public
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	// Custom-domain requests are rewritten onto /t/{username} before
	// routing; everything else passes through untouched.
	r.Use(d.Rewriter.Middleware)

	// Health check.
	r.Get("/health", healthHandler)

	// Unauthenticated endpoints get a per-IP rate limit; they are the
	// only surface reachable without a token.
	loginLimiter := middleware.NewRateLimiter(20, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadIdentity(d.Tokens))

		r.With(loginLimiter.Middleware).Post("/login", d.Auth.Login)
		r.With(loginLimiter.Middleware).Get("/domains/resolve", d.Domains.Resolve)

		r.Get("/sites/{username}", d.Sites.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/logout", d.Auth.Logout)
			r.Get("/me", d.Auth.Me)

			r.Post("/sites/{username}", d.Sites.Save)

			r.Get("/domains", d.Domains.List)
			r.Post("/domains", d.Domains.Attach)
			r.Delete("/domains", d.Domains.Detach)

			r.Post("/uploads", d.Uploads.Upload)
			r.Get("/uploads", d.Uploads.List)
			r.Delete("/uploads/{id}", d.Uploads.Delete)

			r.Route("/editor", func(r chi.Router) {
				r.Post("/sessions", d.Editor.Open)
				r.Get("/sessions/{sessionID}", d.Editor.State)
				r.Post("/sessions/{sessionID}/apply", d.Editor.Apply)
				r.Post("/sessions/{sessionID}/save", d.Editor.Save)
				r.Post("/sessions/{sessionID}/upload", d.Editor.Upload)
				r.Delete("/sessions/{sessionID}", d.Editor.Close)
			})
		})
	})

	// Public tenant pages. Custom domains land here via the rewriter.
	r.Get("/t/{username}", d.Public.Page)
	r.Get("/t/{username}/*", d.Public.Page)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
