package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rankstack/rankstack-sync/internal/api/recovery"
	"github.com/rankstack/rankstack-sync/internal/coordinator"
)

// RouterParams carries the router's collaborators.
type RouterParams struct {
	Coordinator *coordinator.Coordinator
	// LocalPing probes the local store for /v0/health; may be nil.
	LocalPing func(ctx context.Context) error
	// RemoteAvailable reports remote reachability; may be nil.
	RemoteAvailable func() bool
	ProbeTimeout    time.Duration
}

// NewRouter wires every /v0 route plus /metrics.
func NewRouter(p RouterParams) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	collections := NewCollectionHandler(p.Coordinator)
	root.HandleFunc("/v0/collections", collections.CreateCollection).Methods(http.MethodPost)
	root.HandleFunc("/v0/collections", collections.ListCollections).Methods(http.MethodGet)
	root.HandleFunc("/v0/collections", collections.DeleteAllCollections).Methods(http.MethodDelete)
	root.HandleFunc("/v0/collections/{id}", collections.GetCollection).Methods(http.MethodGet)
	root.HandleFunc("/v0/collections/{id}", collections.UpdateCollection).Methods(http.MethodPut)
	root.HandleFunc("/v0/collections/{id}", collections.DeleteCollection).Methods(http.MethodDelete)

	items := NewItemHandler(p.Coordinator)
	root.HandleFunc("/v0/items", items.CreateItem).Methods(http.MethodPost)
	root.HandleFunc("/v0/items", items.ListItems).Methods(http.MethodGet)
	root.HandleFunc("/v0/items", items.DeleteAllItems).Methods(http.MethodDelete)
	root.HandleFunc("/v0/items/batch", items.SaveItemsBatch).Methods(http.MethodPost)
	root.HandleFunc("/v0/items/{id}", items.GetItem).Methods(http.MethodGet)
	root.HandleFunc("/v0/items/{id}", items.UpdateItem).Methods(http.MethodPut)
	root.HandleFunc("/v0/items/{id}", items.DeleteItem).Methods(http.MethodDelete)

	sync := NewSyncHandler(p.Coordinator)
	root.HandleFunc("/v0/auth/state", sync.SetAuthState).Methods(http.MethodPost)
	root.HandleFunc("/v0/stats", sync.GetStats).Methods(http.MethodGet)
	root.HandleFunc("/v0/verify/{id}", sync.VerifyPersistence).Methods(http.MethodPost)
	root.HandleFunc("/v0/data", sync.ClearAllData).Methods(http.MethodDelete)

	health := NewHealthHandler(p.LocalPing, p.RemoteAvailable, p.ProbeTimeout)
	root.HandleFunc("/v0/health", health.CheckHealth).Methods(http.MethodGet)

	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return root
}
