// Package event publishes storefront events to Kafka. Events are best
// effort: a failed publish is logged and never fails the operation that
// produced it.
package event

import (
	"context"
	"log/slog"

	"github.com/naveen554/jaggaer-storefront/internal/domain"
	"github.com/naveen554/jaggaer-storefront/pkg/kafka"
	"github.com/naveen554/jaggaer-storefront/pkg/logger"
)

const source = "storefront"

const (
	// EventTypeCartRefreshed is emitted after every mutation-triggered cart
	// refresh.
	EventTypeCartRefreshed = "cart.refreshed"
	// EventTypePurchaseCompleted is emitted after a checkout completes.
	EventTypePurchaseCompleted = "purchase.completed"
)

// publisher is the subset of the Kafka producer used here.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Publisher emits cart and purchase events. It satisfies both the cart
// coordinator's and the checkout sequencer's publisher contracts.
type Publisher struct {
	producer               publisher
	cartRefreshedTopic     string
	purchaseCompletedTopic string
	logger                 *slog.Logger
}

// NewPublisher creates an event publisher over the given producer.
func NewPublisher(producer publisher, cartRefreshedTopic, purchaseCompletedTopic string, log *slog.Logger) *Publisher {
	return &Publisher{
		producer:               producer,
		cartRefreshedTopic:     cartRefreshedTopic,
		purchaseCompletedTopic: purchaseCompletedTopic,
		logger:                 log,
	}
}

// CartRefreshedPayload is the data payload of a cart.refreshed event.
type CartRefreshedPayload struct {
	SessionID string `json:"session_id"`
	ItemCount int    `json:"item_count"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

// CartRefreshed publishes a cart.refreshed event for the session.
func (p *Publisher) CartRefreshed(ctx context.Context, sessionID string, cart *domain.Cart) {
	payload := CartRefreshedPayload{
		SessionID: sessionID,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total,
		Currency:  cart.DisplayCurrency(),
	}

	evt, err := kafka.NewEvent(EventTypeCartRefreshed, sessionID, "cart", source, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "build cart.refreshed event failed", slog.String("error", err.Error()))
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, p.cartRefreshedTopic, evt); err != nil {
		p.logger.WarnContext(ctx, "publish cart.refreshed failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// PurchaseCompletedPayload is the data payload of a purchase.completed event.
type PurchaseCompletedPayload struct {
	PurchaseID string            `json:"purchase_id"`
	SessionID  string            `json:"session_id"`
	Items      []domain.CartItem `json:"items"`
	Total      int64             `json:"total"`
	Currency   string            `json:"currency"`
}

// PurchaseCompleted publishes a purchase.completed event.
func (p *Publisher) PurchaseCompleted(ctx context.Context, purchase *domain.Purchase) {
	payload := PurchaseCompletedPayload{
		PurchaseID: purchase.ID,
		SessionID:  purchase.SessionID,
		Items:      purchase.Items,
		Total:      purchase.Total,
		Currency:   purchase.Currency,
	}

	evt, err := kafka.NewEvent(EventTypePurchaseCompleted, purchase.ID, "purchase", source, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "build purchase.completed event failed", slog.String("error", err.Error()))
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, p.purchaseCompletedTopic, evt); err != nil {
		p.logger.WarnContext(ctx, "publish purchase.completed failed",
			slog.String("purchase_id", purchase.ID),
			slog.String("error", err.Error()),
		)
	}
}
