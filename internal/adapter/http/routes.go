package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	pfotel "github.com/Strob0t/ProposalForge/internal/adapter/otel"
	"github.com/Strob0t/ProposalForge/internal/config"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
	"github.com/Strob0t/ProposalForge/internal/middleware"
	"github.com/Strob0t/ProposalForge/internal/port/cache"
)

// RouterConfig holds the cross-cutting dependencies of the router.
type RouterConfig struct {
	Server         config.Server
	ServiceName    string
	Verifier       middleware.Verifier
	AuthEnabled    bool
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	Idempotency    cache.Cache             // nil disables Idempotency-Key replay
	IdempotencyTTL time.Duration
}

// NewRouter builds the chi router with the full middleware stack. Order
// matters: the request id must exist before anything logs, and the caller
// must be known before idempotency keys are scoped.
func NewRouter(rc RouterConfig, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(pfotel.HTTPMiddleware(rc.ServiceName))
	r.Use(Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(CORS(rc.Server.CORSOrigin))
	if rc.RateLimiter != nil {
		r.Use(rc.RateLimiter.Handler)
	}
	if rc.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(rc.Server.RequestTimeout))
	}
	r.Use(middleware.Location)
	r.Use(middleware.Auth(rc.Verifier, rc.AuthEnabled))
	if rc.Idempotency != nil {
		r.Use(middleware.Idempotency(rc.Idempotency, rc.IdempotencyTTL))
	}

	r.Get("/health", h.Health)
	MountRoutes(r, h)
	return r
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Proposals
		r.Post("/proposals", h.CreateProposal)
		r.Get("/proposals", h.ListProposals)
		r.Get("/proposals/{id}", h.GetProposal)
		r.Put("/proposals/{id}", h.UpdateProposal)

		// Preferences
		r.Get("/preferences", h.GetPreferences)
		r.With(middleware.RequireRole(user.RoleAdmin)).Put("/preferences", h.UpdatePreferences)

		// Adjustment rates
		r.Get("/units/{id}/adjustments", h.GetAdjustments)
		r.Put("/units/{id}/adjustments/{year}", h.UpsertAdjustments)
	})
}
