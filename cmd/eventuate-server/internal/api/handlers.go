// Package api wires the eventuate-server HTTP surface: a thin admin
// interface over Producer.Send, intended as a demonstration rather than
// a core subsystem.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/coregx/eventuate"
	"github.com/go-chi/chi/v5"
)

// Handlers holds the dependencies the HTTP routes need.
type Handlers struct {
	Producer *eventuate.Producer
	Logger   eventuate.Logger
}

// Routes mounts the admin API onto r.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/api/v1/publish", h.publish)
	r.Get("/health", h.health)
}

type publishRequest struct {
	Destination string            `json:"destination"`
	Payload     string            `json:"payload"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type publishResponse struct {
	OK bool `json:"ok"`
}

func (h *Handlers) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg := eventuate.NewMessage(req.Payload, req.Headers)
	if err := h.Producer.Send(r.Context(), req.Destination, msg); err != nil {
		h.Logger.Errorf("publish failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to publish message")
		return
	}

	writeJSON(w, http.StatusOK, publishResponse{OK: true})
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
