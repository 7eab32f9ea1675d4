package api

import (
	"net/http"

	"github.com/coachly/coachly/internal/chat"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pipeline *chat.Pipeline
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pipeline *chat.Pipeline) *HealthHandler {
	return &HealthHandler{pipeline: pipeline}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 OK once the chat pipeline is wired. There is no
// durable backend to ping; readiness only guards against serving before
// startup wiring finished.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.pipeline == nil {
		http.Error(w, "chat pipeline not configured", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
