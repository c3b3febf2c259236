// Package cartstore talks to the authoritative remote cart service and caches
// read snapshots in Redis. The remote service owns all cart state; this
// package never computes cart contents locally.
package cartstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/naveen554/jaggaer-storefront/internal/domain"
	apperrors "github.com/naveen554/jaggaer-storefront/pkg/errors"
	"github.com/naveen554/jaggaer-storefront/pkg/httpclient"
)

const serviceName = "cart-service"

// Store is the cart access contract consumed by the consistency core. All
// operations are scoped to a session; mutations return no cart state, forcing
// callers to refresh through the read operations.
type Store interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	GetCartCount(ctx context.Context, sessionID string) (int, error)
	AddItem(ctx context.Context, sessionID, productID string, quantity int) error
	RemoveItem(ctx context.Context, sessionID, itemID string) error
	Clear(ctx context.Context, sessionID string) error
}

// httpDoer is the subset of the HTTP client used by the remote store.
type httpDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// RemoteStore implements Store against the cart service's HTTP API. The
// session is carried on every request as the X-Session-ID header.
type RemoteStore struct {
	baseURL string
	http    httpDoer
}

// NewRemoteStore creates a remote cart store against the given base URL.
func NewRemoteStore(baseURL string, doer httpDoer) *RemoteStore {
	return &RemoteStore{baseURL: baseURL, http: doer}
}

type cartResponse struct {
	Data domain.Cart `json:"data"`
}

type cartCountResponse struct {
	Data struct {
		Count int `json:"count"`
	} `json:"data"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *RemoteStore) do(ctx context.Context, method, path, sessionID string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("X-Session-ID", sessionID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.ServiceUnavailable(fmt.Sprintf("%s: %v", serviceName, err))
	}
	return resp, nil
}

// GetCart fetches the authoritative cart for the session. A session with no
// cart yet yields an empty cart, not an error.
func (s *RemoteStore) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/v1/cart", sessionID, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out cartResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("decode cart: %w", err))
	}
	if out.Data.Items == nil {
		out.Data.Items = []domain.CartItem{}
	}
	if err := out.Data.Validate(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("malformed cart from %s: %w", serviceName, err))
	}
	return &out.Data, nil
}

// GetCartCount fetches the total item quantity for the session without
// transferring the full cart.
func (s *RemoteStore) GetCartCount(ctx context.Context, sessionID string) (int, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/v1/cart/count", sessionID, nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out cartCountResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return 0, apperrors.Internal(fmt.Errorf("decode cart count: %w", err))
	}
	return out.Data.Count, nil
}

// AddItem asks the cart service to add the given quantity of the product.
// Adds are not idempotent: the service merges repeated adds of the same
// product into a single line by summing quantities.
func (s *RemoteStore) AddItem(ctx context.Context, sessionID, productID string, quantity int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}

	payload, err := json.Marshal(addItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return apperrors.Internal(fmt.Errorf("encode add item request: %w", err))
	}

	resp, err := s.do(ctx, http.MethodPost, "/api/v1/cart/items", sessionID, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// RemoveItem asks the cart service to drop the line entirely, regardless of
// its quantity.
func (s *RemoteStore) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	if itemID == "" {
		return apperrors.InvalidInput("item id is required")
	}

	resp, err := s.do(ctx, http.MethodDelete, "/api/v1/cart/items/"+url.PathEscape(itemID), sessionID, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Clear asks the cart service to empty the session's cart. Clearing an
// already empty cart succeeds.
func (s *RemoteStore) Clear(ctx context.Context, sessionID string) error {
	resp, err := s.do(ctx, http.MethodDelete, "/api/v1/cart", sessionID, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
