package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rankstack/rankstack-sync/internal/api/respond"
)

// HealthHandler reports service liveness. The local store is the one hard
// dependency; remote reachability is advisory and never fails this check.
type HealthHandler struct {
	localPing    func(ctx context.Context) error
	remoteStatus func() bool
	probeTimeout time.Duration
}

// NewHealthHandler builds the handler. localPing may be nil (in-memory
// driver); remoteStatus may be nil when no remote store is configured.
func NewHealthHandler(localPing func(ctx context.Context) error, remoteStatus func() bool, probeTimeout time.Duration) *HealthHandler {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &HealthHandler{localPing: localPing, remoteStatus: remoteStatus, probeTimeout: probeTimeout}
}

// CheckHealth GET /v0/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "UP",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.remoteStatus != nil {
		body["remoteAvailable"] = h.remoteStatus()
	}

	if h.localPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.probeTimeout)
		defer cancel()
		if err := h.localPing(ctx); err != nil {
			body["status"] = "DOWN"
			body["message"] = err.Error()
			respond.WriteJSON(w, http.StatusInternalServerError, body)
			return
		}
	}
	respond.WriteJSON(w, http.StatusOK, body)
}
