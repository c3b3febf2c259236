// Package catalog provides read access to the remote catalog service. The
// catalog is immutable from this service's point of view; products are only
// ever listed and fetched, never modified.
package catalog

import (
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

const serviceName = "catalog-service"

// httpDoer is the subset of the HTTP client used by the catalog client.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy it.
type httpDoer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client calls the remote catalog service.
type Client struct {
	baseURL string
	http    httpDoer
}

// NewClient creates a catalog client against the given base URL.
func NewClient(baseURL string, doer httpDoer) *Client {
	return &Client{baseURL: baseURL, http: doer}
}

type productListResponse struct {
	Data []domain.Product `json:"data"`
}

type productResponse struct {
	Data domain.Product `json:"data"`
}

// ListProducts returns the full product catalog in the order the catalog
// service declares. An empty catalog is a valid result, not an error.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/api/v1/products")
	if err != nil {
		return nil, apperrors.ServiceUnavailable(fmt.Sprintf("%s: %v", serviceName, err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out productListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("decode product list: %w", err))
	}
	if out.Data == nil {
		out.Data = []domain.Product{}
	}
	return out.Data, nil
}

// GetProduct returns a single product by ID. An unknown ID yields a
// not-found error that the HTTP layer renders as 404.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	resp, err := c.http.Get(ctx, c.baseURL+"/api/v1/products/"+url.PathEscape(id))
	if err != nil {
		return nil, apperrors.ServiceUnavailable(fmt.Sprintf("%s: %v", serviceName, err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out productResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("decode product: %w", err))
	}
	return &out.Data, nil
}
