// ABOUTME: chi router assembly with the request pipeline in a fixed order
// ABOUTME: CORS, request ID, recovery, path cleaning, Interceptor, logging, Policy, then routes

package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/2389/campus-gateway/internal/auth"
)

// corsOptions builds the CORS policy for the configured origins.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// newRouter wires middleware and routes. Interceptor and Policy are root
// middleware, so they run before route matching: an anonymous caller gets 401 on
// an unknown route rather than 404.
func (g *Gateway) newRouter(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Preflight requests are answered here and never reach the policy.
	if origins := g.config.CORS.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(corsOptions(origins)))
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(auth.Interceptor(g.store, g.codec, logger.With("component", "interceptor")))
	r.Use(requestLogger(logger.With("component", "http")))
	r.Use(g.policy.Middleware(logger.With("component", "policy")))

	r.Get("/health", g.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.With(g.throttle.Middleware).Post("/login", g.handleLogin)
		r.With(g.throttle.Middleware).Post("/register", g.handleRegister)
		r.Get("/me", g.handleMe)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/principals", g.handleListPrincipals)
		r.Put("/principals/{identifier}/role", g.handleUpdateRole)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		g.sendJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		g.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
