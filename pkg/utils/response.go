package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

type errorEnvelope struct {
	Error string `json:"error"`
}

// RespondJSON writes payload as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode %d response: %v", status, err)
	}
}

// RespondError writes the JSON error envelope used by every endpoint.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, errorEnvelope{Error: message})
}
