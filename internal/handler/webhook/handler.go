package webhook

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidaflow/backend/internal/service/bot"
	"github.com/vidaflow/backend/pkg/utils"
)

// Handler receives inbound chat messages and answers with the bot's reply.
type Handler struct {
	bot *bot.Service
}

// New creates the webhook handler.
func New(botSvc *bot.Service) *Handler {
	return &Handler{bot: botSvc}
}

// RegisterRoutes mounts the inbound message endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/whatsapp", h.handleInbound)
}

func (h *Handler) handleInbound(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		From string `json:"from"`
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := h.bot.HandleMessage(r.Context(), payload.From, payload.Text)
	if err != nil {
		log.Printf("[webhook] fulfillment failed: %v", err)
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
