package ops

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vidaflow/backend/internal/model/account"
	opsservice "github.com/vidaflow/backend/internal/service/ops"
	"github.com/vidaflow/backend/pkg/utils"
)

// Handler exposes the privileged ops console endpoints. Every endpoint is a
// POST carrying an action discriminator, authenticated by bearer token.
type Handler struct {
	svc *opsservice.Service
}

// New creates the ops handler.
func New(svc *opsservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the ops endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ops/bugs", h.handleBugs)
	r.Post("/ops/diagnostics", h.handleDiagnostics)
	r.Post("/ops/roles", h.handleRoles)
}

type request struct {
	Action   string `json:"action"`
	Label    string `json:"label,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	NewRole  string `json:"newRole,omitempty"`
}

func (h *Handler) handleBugs(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.authRequest(w, r)
	if !ok {
		return
	}

	switch req.Action {
	case "list":
		bugs, err := h.svc.ListBugs(r.Context(), caller)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{"data": bugs})
	default:
		utils.RespondError(w, http.StatusNotFound, "unknown action")
	}
}

func (h *Handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.authRequest(w, r)
	if !ok {
		return
	}

	switch req.Action {
	case "list":
		diags, err := h.svc.ListDiagnostics(r.Context(), caller)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{"data": diags})
	case "create_marker":
		diag, err := h.svc.CreateMarker(r.Context(), caller, req.Label)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{"data": diag})
	default:
		utils.RespondError(w, http.StatusNotFound, "unknown action")
	}
}

func (h *Handler) handleRoles(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := h.authRequest(w, r)
	if !ok {
		return
	}

	switch req.Action {
	case "set_role":
		if req.TargetID == "" {
			utils.RespondError(w, http.StatusBadRequest, "targetId is required")
			return
		}
		if err := h.svc.SetRole(r.Context(), caller, req.TargetID, req.NewRole); err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		utils.RespondError(w, http.StatusNotFound, "unknown action")
	}
}

// authRequest resolves the caller and decodes the action body. On failure
// it writes the error response and reports ok=false.
func (h *Handler) authRequest(w http.ResponseWriter, r *http.Request) (account.User, request, bool) {
	caller, err := h.svc.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		respondServiceError(w, err)
		return account.User{}, request{}, false
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return account.User{}, request{}, false
	}
	return caller, req, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// respondServiceError maps service errors onto the wire taxonomy: denials
// are 403 with a generic message, validation problems and store failures are
// 400 with the message attached.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, opsservice.ErrPermissionDenied):
		utils.RespondError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, opsservice.ErrInvalidRole):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	}
}
