package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rankstack/rankstack-sync/internal/api/respond"
	"github.com/rankstack/rankstack-sync/internal/coordinator"
	"github.com/rankstack/rankstack-sync/internal/model"
)

// SyncHandler exposes the coordinator's lifecycle surface: authentication
// transitions, stats, persistence verification and the full wipe.
type SyncHandler struct {
	coord *coordinator.Coordinator
}

func NewSyncHandler(coord *coordinator.Coordinator) *SyncHandler {
	return &SyncHandler{coord: coord}
}

// SetAuthState POST /v0/auth/state
func (h *SyncHandler) SetAuthState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Authenticated bool   `json:"authenticated"`
		Strategy      string `json:"strategy,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}

	var strategy model.MigrationStrategy
	if req.Strategy != "" {
		parsed, err := model.ParseMigrationStrategy(req.Strategy)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		strategy = parsed
	}

	if err := h.coord.UpdateAuthenticationState(r.Context(), req.Authenticated, strategy); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.coord.GetStats())
}

// GetStats GET /v0/stats
func (h *SyncHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.coord.GetStats())
}

// VerifyPersistence POST /v0/verify/{id}
func (h *SyncHandler) VerifyPersistence(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.coord.VerifyPersistence(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": id, "persisted": true})
}

// ClearAllData DELETE /v0/data
func (h *SyncHandler) ClearAllData(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.ClearAllData(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
