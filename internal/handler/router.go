package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vidaflow/backend/internal/cache"
	healthHandler "github.com/vidaflow/backend/internal/handler/health"
	opsHandler "github.com/vidaflow/backend/internal/handler/ops"
	webhookHandler "github.com/vidaflow/backend/internal/handler/webhook"
	middlewarePkg "github.com/vidaflow/backend/internal/middleware"
	"github.com/vidaflow/backend/internal/ratelimit"
	botService "github.com/vidaflow/backend/internal/service/bot"
	opsService "github.com/vidaflow/backend/internal/service/ops"
	"github.com/vidaflow/backend/internal/store"
)

// Deps collects everything the router wires together.
type Deps struct {
	Store           store.Store
	StoreConfigured bool
	Limiter         *ratelimit.Limiter
	HealthCache     *cache.Slot
	HealthInfo      healthHandler.Info
}

// NewRouter wires HTTP routes to core services. Request flow per route:
// CORS (preflight short-circuit) -> rate limit -> handler, with permission
// checks inside the ops handlers.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(middlewarePkg.RateLimit(deps.Limiter))

	botSvc := botService.NewService(deps.Store)
	opsSvc := opsService.NewService(deps.Store)

	health := healthHandler.New(deps.Store, deps.HealthCache, deps.HealthInfo, deps.StoreConfigured)
	webhook := webhookHandler.New(botSvc)
	ops := opsHandler.New(opsSvc)

	r.Route("/api", func(api chi.Router) {
		health.RegisterRoutes(api)
		webhook.RegisterRoutes(api)
		ops.RegisterRoutes(api)
	})

	return r
}
