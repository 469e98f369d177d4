// Package http provides the HTTP transport over the persistence
// coordinator. Routes live under /v0 and shape the wire contract the
// restapi store driver and the syncctl CLI consume.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rankstack/rankstack-sync/internal/api/respond"
	"github.com/rankstack/rankstack-sync/internal/coordinator"
	"github.com/rankstack/rankstack-sync/internal/model"
)

// CollectionHandler provides HTTP transport for collection operations.
type CollectionHandler struct {
	coord *coordinator.Coordinator
}

func NewCollectionHandler(coord *coordinator.Coordinator) *CollectionHandler {
	return &CollectionHandler{coord: coord}
}

// CreateCollection POST /v0/collections
func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var col model.Collection
	if err := json.NewDecoder(r.Body).Decode(&col); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	fillCollectionDefaults(&col)

	if err := h.coord.SaveCollection(r.Context(), &col); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, &col)
}

// ListCollections GET /v0/collections
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.coord.ListCollections(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"collections": cols, "count": len(cols)})
}

// GetCollection GET /v0/collections/{id}
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	col, err := h.coord.GetCollection(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, col)
}

// UpdateCollection PUT /v0/collections/{id}
func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var col model.Collection
	if err := json.NewDecoder(r.Body).Decode(&col); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	// The path names the record; the body cannot redirect the write.
	col.ID = mux.Vars(r)["id"]
	if col.UpdatedAt.IsZero() {
		col.UpdatedAt = time.Now().UTC()
	}

	updated, err := h.coord.UpdateCollection(r.Context(), &col)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, updated)
}

// DeleteCollection DELETE /v0/collections/{id}
func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.coord.DeleteCollection(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllCollections DELETE /v0/collections
func (h *CollectionHandler) DeleteAllCollections(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.DeleteAllCollections(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func fillCollectionDefaults(col *model.Collection) {
	if col.ID == "" {
		col.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if col.CreatedAt.IsZero() {
		col.CreatedAt = now
	}
	if col.UpdatedAt.IsZero() {
		col.UpdatedAt = col.CreatedAt
	}
}
