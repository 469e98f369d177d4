// Package restapi implements store.Store against another sync service's HTTP
// API. It is the "rest" remote driver, and its Client doubles as the
// transport for the syncctl CLI.
package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rankstack/rankstack-sync/internal/model"
)

// Client is a thin typed wrapper over the /v0 HTTP API.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the service at baseURL. A zero timeout
// disables the client-side deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

type listCollectionsResponse struct {
	Collections []*model.Collection `json:"collections"`
	Count       int                 `json:"count"`
}

type listItemsResponse struct {
	Items []*model.Item `json:"items"`
	Count int           `json:"count"`
}

type batchSaveRequest struct {
	Items []*model.Item `json:"items"`
}

type batchSaveResponse struct {
	Saved int `json:"saved"`
}

type authStateRequest struct {
	Authenticated bool   `json:"authenticated"`
	Strategy      string `json:"strategy,omitempty"`
}

// statusError maps API status codes back to the domain sentinels the store
// contract promises.
func statusError(op string, resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrDuplicateID
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), resp.String())
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// --- Collections ---

func (c *Client) CreateCollection(ctx context.Context, col *model.Collection) (*model.Collection, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(col).Post("/v0/collections")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, statusError("create collection", resp)
	}
	var out model.Collection
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v0/collections/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("get collection", resp)
	}
	var out model.Collection
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]*model.Collection, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v0/collections")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("list collections", resp)
	}
	var out listCollectionsResponse
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

func (c *Client) UpdateCollection(ctx context.Context, col *model.Collection) (*model.Collection, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(col).Put("/v0/collections/" + col.ID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("update collection", resp)
	}
	var out model.Collection
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v0/collections/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return statusError("delete collection", resp)
	}
	return nil
}

func (c *Client) DeleteAllCollections(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v0/collections")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return statusError("delete all collections", resp)
	}
	return nil
}

// --- Items ---

func (c *Client) CreateItem(ctx context.Context, it *model.Item) (*model.Item, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(it).Post("/v0/items")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, statusError("create item", resp)
	}
	var out model.Item
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v0/items/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("get item", resp)
	}
	var out model.Item
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListItems returns all items, or only those in collectionID when non-empty.
func (c *Client) ListItems(ctx context.Context, collectionID string) ([]*model.Item, error) {
	req := c.http.R().SetContext(ctx)
	if collectionID != "" {
		req.SetQueryParam("collectionId", collectionID)
	}
	resp, err := req.Get("/v0/items")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("list items", resp)
	}
	var out listItemsResponse
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) UpdateItem(ctx context.Context, it *model.Item) (*model.Item, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(it).Put("/v0/items/" + it.ID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("update item", resp)
	}
	var out model.Item
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v0/items/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return statusError("delete item", resp)
	}
	return nil
}

func (c *Client) DeleteAllItems(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v0/items")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return statusError("delete all items", resp)
	}
	return nil
}

// SaveItemsBatch stores several items atomically and returns how many were
// written.
func (c *Client) SaveItemsBatch(ctx context.Context, items []*model.Item) (int, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(batchSaveRequest{Items: items}).Post("/v0/items/batch")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return 0, statusError("save items batch", resp)
	}
	var out batchSaveResponse
	if err := decode(resp.Body(), &out); err != nil {
		return 0, err
	}
	return out.Saved, nil
}

// --- Coordinator surface ---

func (c *Client) SetAuthState(ctx context.Context, authenticated bool, strategy string) (*model.Stats, error) {
	body := authStateRequest{Authenticated: authenticated, Strategy: strategy}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/v0/auth/state")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("set auth state", resp)
	}
	var out model.Stats
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v0/stats")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError("stats", resp)
	}
	var out model.Stats
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPersistence asks the service to re-read the record with the given ID.
func (c *Client) VerifyPersistence(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Post("/v0/verify/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return statusError("verify persistence", resp)
	}
	return nil
}

// ClearAllData wipes every collection and item on the service.
func (c *Client) ClearAllData(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v0/data")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return statusError("clear all data", resp)
	}
	return nil
}

// Health probes the service liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/v0/health")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("health: status %d", resp.StatusCode())
	}
	return nil
}
