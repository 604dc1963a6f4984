package handler

import (
	"net/http"
)

type healthResponse struct {
	Status     string `json:"status"`
	BotRunning bool   `json:"bot_running"`
	// StateError is the last persistence failure; the process stays healthy while it is set.
	StateError string `json:"state_error,omitempty"`
}

// Health reports liveness for container probes along with the persisted on/off flag.
func (h *BotHandler) Health(w http.ResponseWriter, r *http.Request) {
	s := h.engine.Status(r.Context())
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", BotRunning: s.Running, StateError: s.PersistError})
}
