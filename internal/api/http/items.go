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

// ItemHandler provides HTTP transport for item operations.
type ItemHandler struct {
	coord *coordinator.Coordinator
}

func NewItemHandler(coord *coordinator.Coordinator) *ItemHandler {
	return &ItemHandler{coord: coord}
}

// CreateItem POST /v0/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var it model.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	fillItemDefaults(&it)

	if err := h.coord.SaveItem(r.Context(), &it); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, &it)
}

// ListItems GET /v0/items?collectionId=...
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	collectionID := r.URL.Query().Get("collectionId")
	items, err := h.coord.ListItems(r.Context(), collectionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}

// GetItem GET /v0/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	it, err := h.coord.GetItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, it)
}

// UpdateItem PUT /v0/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var it model.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	it.ID = mux.Vars(r)["id"]
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = time.Now().UTC()
	}

	updated, err := h.coord.UpdateItem(r.Context(), &it)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, updated)
}

// DeleteItem DELETE /v0/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.coord.DeleteItem(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllItems DELETE /v0/items
func (h *ItemHandler) DeleteAllItems(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.DeleteAllItems(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveItemsBatch POST /v0/items/batch
//
// The batch is all-or-nothing: a mid-batch failure unwinds the items
// already written and the response reports the rollback.
func (h *ItemHandler) SaveItemsBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []*model.Item `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if len(req.Items) == 0 {
		respond.WriteBadRequest(w, "items must not be empty")
		return
	}
	for _, it := range req.Items {
		fillItemDefaults(it)
	}

	if err := h.coord.SaveMultipleItems(r.Context(), req.Items); err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"saved": len(req.Items)})
}

func fillItemDefaults(it *model.Item) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = it.CreatedAt
	}
}
