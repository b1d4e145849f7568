package health

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidaflow/backend/internal/cache"
	"github.com/vidaflow/backend/internal/middleware"
	"github.com/vidaflow/backend/internal/store"
	"github.com/vidaflow/backend/pkg/utils"
)

const pingTimeout = 5 * time.Second

// Info identifies the running service in health responses.
type Info struct {
	Service string
	Env     string
	Version string
}

// Handler serves the cached health summary.
type Handler struct {
	store      store.Store
	slot       *cache.Slot
	info       Info
	configured bool
}

// New creates the health handler. configured reports whether a real
// database was wired in, as opposed to the in-memory fallback.
func New(st store.Store, slot *cache.Slot, info Info, configured bool) *Handler {
	return &Handler{store: st, slot: slot, info: info, configured: configured}
}

// RegisterRoutes mounts the health endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

type databaseStatus struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

// snapshot is the cached part of the response. It is stored as a value in
// the cache slot and never mutated, so a hit serves identical data.
type snapshot struct {
	Status    string         `json:"status"`
	Service   string         `json:"service"`
	Env       string         `json:"env"`
	Version   string         `json:"version"`
	Timestamp string         `json:"timestamp"`
	Database  databaseStatus `json:"database"`
}

type rateLimitInfo struct {
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type response struct {
	snapshot
	RateLimit rateLimitInfo `json:"rateLimit"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	value, hit := h.slot.Fetch(func() any { return h.check(r.Context()) })
	snap := value.(snapshot)

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	// Rate-limit accounting stays live even when the snapshot is cached.
	resp := response{snapshot: snap}
	if result, ok := middleware.RateLimitFrom(r.Context()); ok {
		resp.RateLimit = rateLimitInfo{Remaining: result.Remaining, Reset: result.Reset}
	}

	status := http.StatusOK
	if snap.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	utils.RespondJSON(w, status, resp)
}

func (h *Handler) check(ctx context.Context) snapshot {
	snap := snapshot{
		Service:   h.info.Service,
		Env:       h.info.Env,
		Version:   h.info.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  databaseStatus{Configured: h.configured},
	}

	if !h.configured {
		snap.Status = "degraded"
		return snap
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := h.store.Ping(pingCtx); err != nil {
		log.Printf("[health] store ping failed: %v", err)
		snap.Status = "error"
		return snap
	}

	snap.Database.Connected = true
	snap.Status = "ok"
	return snap
}
