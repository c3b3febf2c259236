// Package http exposes the storefront API: catalog browsing, cart
// management, and checkout.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naveen554/jaggaer-storefront/internal/catalog"
	"github.com/naveen554/jaggaer-storefront/internal/domain"
	"github.com/naveen554/jaggaer-storefront/pkg/httputil"
)

// CatalogHandler serves product listing and detail routes.
type CatalogHandler struct {
	catalog *catalog.Client
	logger  *slog.Logger
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(client *catalog.Client, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: client, logger: logger}
}

// productView is the API shape of a product. The gallery is resolved here so
// the presentation layer never needs fallback logic.
type productView struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	LongDescription  string   `json:"long_description,omitempty"`
	ImageURL         string   `json:"image_url"`
	Thumbnails       []string `json:"thumbnails"`
	Rating           float64  `json:"rating"`
	Price            int64    `json:"price"`
	Currency         string   `json:"currency"`
}

func toProductView(p *domain.Product) productView {
	return productView{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		ImageURL:         p.ImageURL,
		Thumbnails:       p.Thumbnails(),
		Rating:           p.Rating,
		Price:            p.Price,
		Currency:         p.Currency,
	}
}

// ListProducts handles GET /api/v1/products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, toProductView(&products[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: views})
}

// GetProduct handles GET /api/v1/products/{productID}.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toProductView(product)})
}
