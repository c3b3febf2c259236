// Package checkout drives the purchase flow. A session moves through a small
// state machine: idle, purchasing while the cart clear is in flight, and
// confirmed once the cleared cart has been acknowledged by the cart service.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/naveen554/jaggaer-storefront/internal/checkout/repository"
	"github.com/naveen554/jaggaer-storefront/internal/domain"
	apperrors "github.com/naveen554/jaggaer-storefront/pkg/errors"
)

var purchases = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_purchases_total",
		Help: "Purchase attempts by outcome (completed, rejected, aborted)",
	},
	[]string{"outcome"},
)

// State is the checkout state of a session.
type State string

const (
	// StateIdle means no purchase is in progress.
	StateIdle State = "idle"
	// StatePurchasing means a purchase has started and the cart clear has
	// not yet been acknowledged.
	StatePurchasing State = "purchasing"
	// StateConfirmed means the purchase completed and the confirmation has
	// not yet been acknowledged by the caller.
	StateConfirmed State = "confirmed"
)

// CartAccess is the slice of the cart coordinator the sequencer needs:
// reading the current cart and clearing it with a refresh.
type CartAccess interface {
	Cart(ctx context.Context, sessionID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error)
}

// PurchasePublisher receives a notification after each completed purchase.
// Publishing is best effort.
type PurchasePublisher interface {
	PurchaseCompleted(ctx context.Context, purchase *domain.Purchase)
}

// NopPublisher discards purchase notifications.
type NopPublisher struct{}

func (NopPublisher) PurchaseCompleted(context.Context, *domain.Purchase) {}

// Sequencer runs the purchase state machine per session.
type Sequencer struct {
	cart   CartAccess
	repo   repository.PurchaseRepository
	events PurchasePublisher
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]State
}

// NewSequencer creates a Sequencer. A nil publisher disables events; a nil
// repository disables purchase records.
func NewSequencer(cart CartAccess, repo repository.PurchaseRepository, events PurchasePublisher, logger *slog.Logger) *Sequencer {
	if events == nil {
		events = NopPublisher{}
	}
	return &Sequencer{
		cart:   cart,
		repo:   repo,
		events: events,
		logger: logger,
		states: make(map[string]State),
	}
}

// State returns the session's checkout state.
func (s *Sequencer) State(sessionID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[sessionID]; ok {
		return st
	}
	return StateIdle
}

func (s *Sequencer) setState(sessionID string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == StateIdle {
		delete(s.states, sessionID)
		return
	}
	s.states[sessionID] = st
}

// transition moves the session from one state to another, failing with a
// conflict if the session is not in the expected state.
func (s *Sequencer) transition(sessionID string, from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.states[sessionID]
	if !ok {
		current = StateIdle
	}
	if current != from {
		return apperrors.Conflict("checkout is " + string(current) + ", expected " + string(from))
	}

	if to == StateIdle {
		delete(s.states, sessionID)
	} else {
		s.states[sessionID] = to
	}
	return nil
}

// Purchase completes the session's purchase: it snapshots the cart, clears it
// through the cart service, records the purchase, and moves the session to
// confirmed. An empty cart cannot be purchased. Any failure after the
// purchase starts returns the session to idle; the session is never left
// stuck in purchasing.
func (s *Sequencer) Purchase(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	if err := s.transition(sessionID, StateIdle, StatePurchasing); err != nil {
		purchases.WithLabelValues("rejected").Inc()
		return nil, err
	}

	cart, err := s.cart.Cart(ctx, sessionID)
	if err != nil {
		s.setState(sessionID, StateIdle)
		purchases.WithLabelValues("aborted").Inc()
		return nil, err
	}
	if cart.IsEmpty() {
		s.setState(sessionID, StateIdle)
		purchases.WithLabelValues("rejected").Inc()
		return nil, apperrors.InvalidInput("cannot purchase an empty cart")
	}

	cleared, err := s.cart.ClearCart(ctx, sessionID)
	if err != nil {
		s.setState(sessionID, StateIdle)
		purchases.WithLabelValues("aborted").Inc()
		return nil, err
	}
	if !cleared.IsEmpty() {
		// The refresh after the clear still shows items; the clear did not
		// take effect and the purchase must not complete.
		s.setState(sessionID, StateIdle)
		purchases.WithLabelValues("aborted").Inc()
		return nil, apperrors.ServiceUnavailable("cart was not cleared, purchase aborted")
	}

	purchase := &domain.Purchase{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Items:     cart.Items,
		Total:     cart.Total,
		Currency:  cart.DisplayCurrency(),
		CreatedAt: time.Now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, purchase); err != nil {
			// The cart is already cleared, so the purchase happened from the
			// buyer's point of view. Log and continue rather than failing a
			// completed purchase over a missing record.
			s.logger.ErrorContext(ctx, "recording purchase failed",
				slog.String("purchase_id", purchase.ID),
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.setState(sessionID, StateConfirmed)
	purchases.WithLabelValues("completed").Inc()
	s.events.PurchaseCompleted(ctx, purchase)

	s.logger.InfoContext(ctx, "purchase completed",
		slog.String("purchase_id", purchase.ID),
		slog.String("session_id", sessionID),
		slog.Int64("total", purchase.Total),
		slog.Int("items", len(purchase.Items)),
	)
	return purchase, nil
}

// Acknowledge dismisses the confirmation and returns the session to idle.
// Only a confirmed session can be acknowledged.
func (s *Sequencer) Acknowledge(sessionID string) error {
	return s.transition(sessionID, StateConfirmed, StateIdle)
}
