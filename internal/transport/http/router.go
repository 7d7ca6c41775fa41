// Package httptransport assembles the HTTP surface: the shared context
// middleware chain, the admin management endpoints behind JWT auth, the
// delivery-boundary resolve endpoint behind an API key, and the operational
// health and metrics endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodia/internal/archive/handler"
	jwttoken "custodia/internal/jwt_token"
	"custodia/internal/platform/middleware"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/secrets"
)

// Config carries the security material the router needs.
type Config struct {
	// JWT validates admin bearer tokens and supplies the actor identity.
	JWT *jwttoken.JWTService

	// ResolveAPIKeyHash is the bcrypt hash the delivery boundary's key is
	// verified against. Empty means the resolve surface is not provisioned;
	// requests to it are refused.
	ResolveAPIKeyHash string
}

// New assembles the router around the archive handler. Every request flows
// through request id, request time, and client metadata extraction before
// the per-surface auth runs.
func New(h *handler.Handler, cfg Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Admin management surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(cfg.JWT), logger))
		h.Register(r)
	})

	// Delivery-boundary surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(apiKeyVerifier(cfg.ResolveAPIKeyHash), logger))
		h.RegisterResolve(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func apiKeyVerifier(hash string) func(key string) error {
	return func(key string) error {
		if hash == "" {
			return dErrors.New(dErrors.CodeUnauthorized, "resolve surface is not provisioned")
		}
		return secrets.Verify(key, hash)
	}
}
