package http

import (
	"net/http"

	"github.com/syslogsitsolutions/menulogs/internal/app/realtime"
)

// SystemHandler serves liveness and realtime diagnostics. These
// routes sit outside the auth middleware.
type SystemHandler struct {
	registry *realtime.Registry
}

func NewSystemHandler(registry *realtime.Registry) *SystemHandler {
	return &SystemHandler{registry: registry}
}

func (h *SystemHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /metrics", h.Metrics)
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Stats())
}
