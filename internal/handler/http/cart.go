package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naveen554/jaggaer-storefront/internal/core"
	"github.com/naveen554/jaggaer-storefront/internal/domain"
	"github.com/naveen554/jaggaer-storefront/pkg/httputil"
	"github.com/naveen554/jaggaer-storefront/pkg/validator"
)

// CartHandler serves cart reads, mutations, and quantity staging.
type CartHandler struct {
	core   *core.Core
	logger *slog.Logger
}

// NewCartHandler creates a cart handler.
func NewCartHandler(c *core.Core, logger *slog.Logger) *CartHandler {
	return &CartHandler{core: c, logger: logger}
}

// cartView is the API shape of a cart snapshot.
type cartView struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     int64             `json:"total"`
	Currency  string            `json:"currency"`
}

func toCartView(cart *domain.Cart) cartView {
	return cartView{
		Items:     cart.Items,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total,
		Currency:  cart.DisplayCurrency(),
	}
}

// GetCart handles GET /api/v1/cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.core.Cart(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartView(cart)})
}

// GetCartCount handles GET /api/v1/cart/count.
func (h *CartHandler) GetCartCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.core.CartCount(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"count": count}})
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

// AddItem handles POST /api/v1/cart/items. Quantity zero or omitted means
// the staged quantity for the product.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.core.AddToCart(r.Context(), sessionID(r), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: toCartView(cart)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	cart, err := h.core.RemoveFromCart(r.Context(), sessionID(r), itemID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartView(cart)})
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.core.ClearCart(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCartView(cart)})
}

type stagedView struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// GetStaged handles GET /api/v1/cart/staging/{productID}.
func (h *CartHandler) GetStaged(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	quantity := h.core.StagedQuantity(sessionID(r), productID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stagedView{ProductID: productID, Quantity: quantity}})
}

// IncrementStaged handles POST /api/v1/cart/staging/{productID}/increment.
func (h *CartHandler) IncrementStaged(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	quantity := h.core.IncrementStaged(sessionID(r), productID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stagedView{ProductID: productID, Quantity: quantity}})
}

// DecrementStaged handles POST /api/v1/cart/staging/{productID}/decrement.
// The quantity never goes below 1.
func (h *CartHandler) DecrementStaged(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	quantity := h.core.DecrementStaged(sessionID(r), productID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stagedView{ProductID: productID, Quantity: quantity}})
}
