package http

import (
	"log/slog"
	"net/http"

	"github.com/naveen554/jaggaer-storefront/internal/checkout"
	"github.com/naveen554/jaggaer-storefront/internal/checkout/repository"
	"github.com/naveen554/jaggaer-storefront/internal/domain"
	"github.com/naveen554/jaggaer-storefront/pkg/httputil"
)

// CheckoutHandler serves the purchase flow.
type CheckoutHandler struct {
	sequencer *checkout.Sequencer
	purchases repository.PurchaseRepository
	logger    *slog.Logger
}

// NewCheckoutHandler creates a checkout handler. The repository may be nil
// when purchase history is disabled.
func NewCheckoutHandler(seq *checkout.Sequencer, purchases repository.PurchaseRepository, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{sequencer: seq, purchases: purchases, logger: logger}
}

type purchaseView struct {
	ID        string            `json:"id"`
	Items     []domain.CartItem `json:"items"`
	Total     int64             `json:"total"`
	Currency  string            `json:"currency"`
	CreatedAt string            `json:"created_at"`
}

func toPurchaseView(p *domain.Purchase) purchaseView {
	return purchaseView{
		ID:        p.ID,
		Items:     p.Items,
		Total:     p.Total,
		Currency:  p.Currency,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Purchase handles POST /api/v1/checkout/purchase.
func (h *CheckoutHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.sequencer.Purchase(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: toPurchaseView(purchase)})
}

// Acknowledge handles POST /api/v1/checkout/acknowledge, dismissing the
// purchase confirmation.
func (h *CheckoutHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.sequencer.Acknowledge(sessionID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"state": string(checkout.StateIdle)}})
}

// GetState handles GET /api/v1/checkout.
func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state := h.sequencer.State(sessionID(r))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"state": string(state)}})
}

// ListPurchases handles GET /api/v1/checkout/purchases.
func (h *CheckoutHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	if h.purchases == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: []purchaseView{}})
		return
	}

	purchases, err := h.purchases.ListBySession(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	views := make([]purchaseView, 0, len(purchases))
	for i := range purchases {
		views = append(views, toPurchaseView(&purchases[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: views})
}
