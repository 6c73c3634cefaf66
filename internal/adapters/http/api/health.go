package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/teampulse/pkg/metrics"
)

// HealthHandler serves the Prometheus registry.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests with the custom metrics registry.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

type liveResponse struct {
	Status            string `json:"status"`
	RendererAvailable bool   `json:"renderer_available"`
	AuthEnabled       bool   `json:"auth_enabled"`
}

// LiveHandler answers liveness probes.
type LiveHandler struct {
	deps        Dependencies
	authEnabled bool
}

// NewLiveHandler creates a new liveness handler.
func NewLiveHandler(deps Dependencies, authEnabled bool) *LiveHandler {
	return &LiveHandler{deps: deps, authEnabled: authEnabled}
}

// HandleLive handles GET /livez. The process is live even when the renderer
// is not; templates take over.
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, liveResponse{
		Status:            "ok",
		RendererAvailable: h.deps.RendererAvailable(r.Context()),
		AuthEnabled:       h.authEnabled,
	})
}
