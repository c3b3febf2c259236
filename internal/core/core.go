// Package core coordinates cart reads and mutations for a session so that
// every observed cart state is a state the remote cart service actually held.
// Mutations never patch local state; they invalidate the cached snapshot and
// re-read the authoritative cart, and concurrent mutations on one session are
// serialized.
package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/naveen554/jaggaer-storefront/internal/cartstore"
	"github.com/naveen554/jaggaer-storefront/internal/domain"
	apperrors "github.com/naveen554/jaggaer-storefront/pkg/errors"
)

var cartRefreshes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cart_refreshes_total",
		Help: "Cart refreshes by outcome (applied, discarded, failed)",
	},
	[]string{"outcome"},
)

// EventPublisher receives a notification after each successful
// mutation-triggered refresh. Publishing is best effort; a failed publish
// never fails the cart operation.
type EventPublisher interface {
	CartRefreshed(ctx context.Context, sessionID string, cart *domain.Cart)
}

// NopPublisher is an EventPublisher that discards all notifications.
type NopPublisher struct{}

func (NopPublisher) CartRefreshed(context.Context, string, *domain.Cart) {}

// sessionState holds the per-session serialization lock, the staged
// quantities picked on product pages, and the refresh stamp.
type sessionState struct {
	mu sync.Mutex

	// refreshSeq increases every time a refresh starts. A refresh only
	// commits its snapshot if no newer refresh has started since, so a slow
	// stale read can never overwrite a newer cart state. commitMu keeps the
	// staleness check and the commit atomic; read-path refreshes do not hold
	// the session lock.
	refreshSeq atomic.Uint64
	commitMu   sync.Mutex

	stagedMu sync.Mutex
	staged   map[string]int
}

// Core is the cart consistency coordinator.
type Core struct {
	store  cartstore.Store
	cache  *cartstore.SnapshotCache
	events EventPublisher
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// New creates a Core. A nil publisher disables event publishing.
func New(store cartstore.Store, cache *cartstore.SnapshotCache, events EventPublisher, logger *slog.Logger) *Core {
	if events == nil {
		events = NopPublisher{}
	}
	return &Core{
		store:    store,
		cache:    cache,
		events:   events,
		logger:   logger,
		sessions: make(map[string]*sessionState),
	}
}

func (c *Core) session(sessionID string) *sessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		st = &sessionState{staged: make(map[string]int)}
		c.sessions[sessionID] = st
	}
	return st
}

// StagedQuantity returns the quantity currently staged for the product on
// the session's detail view. Unstaged products default to 1.
func (c *Core) StagedQuantity(sessionID, productID string) int {
	st := c.session(sessionID)
	st.stagedMu.Lock()
	defer st.stagedMu.Unlock()
	if q, ok := st.staged[productID]; ok {
		return q
	}
	return 1
}

// IncrementStaged raises the staged quantity by one and returns the result.
func (c *Core) IncrementStaged(sessionID, productID string) int {
	st := c.session(sessionID)
	st.stagedMu.Lock()
	defer st.stagedMu.Unlock()
	q, ok := st.staged[productID]
	if !ok {
		q = 1
	}
	q++
	st.staged[productID] = q
	return q
}

// DecrementStaged lowers the staged quantity by one, clamped at 1.
func (c *Core) DecrementStaged(sessionID, productID string) int {
	st := c.session(sessionID)
	st.stagedMu.Lock()
	defer st.stagedMu.Unlock()
	q, ok := st.staged[productID]
	if !ok {
		q = 1
	}
	if q > 1 {
		q--
	}
	st.staged[productID] = q
	return q
}

func (c *Core) resetStaged(sessionID, productID string) {
	st := c.session(sessionID)
	st.stagedMu.Lock()
	defer st.stagedMu.Unlock()
	delete(st.staged, productID)
}

// refresh re-reads the authoritative cart and commits it to the snapshot
// cache unless a newer refresh has started in the meantime.
func (c *Core) refresh(ctx context.Context, st *sessionState, sessionID string) (*domain.Cart, error) {
	seq := st.refreshSeq.Add(1)

	cart, err := c.store.GetCart(ctx, sessionID)
	if err != nil {
		cartRefreshes.WithLabelValues("failed").Inc()
		return nil, err
	}

	st.commitMu.Lock()
	defer st.commitMu.Unlock()
	if st.refreshSeq.Load() == seq {
		c.cache.SetCart(ctx, sessionID, cart)
		cartRefreshes.WithLabelValues("applied").Inc()
	} else {
		cartRefreshes.WithLabelValues("discarded").Inc()
		c.logger.DebugContext(ctx, "discarding stale cart refresh",
			slog.String("session_id", sessionID),
			slog.Uint64("seq", seq),
		)
	}
	return cart, nil
}

// mutate runs the mutation under the session lock, then invalidates the
// snapshot and refreshes from the authoritative store. The returned cart is
// always a post-mutation server state.
func (c *Core) mutate(ctx context.Context, sessionID string, op func(context.Context) error) (*domain.Cart, error) {
	st := c.session(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := op(ctx); err != nil {
		return nil, err
	}

	if err := c.cache.Invalidate(ctx, sessionID); err != nil {
		c.logger.WarnContext(ctx, "snapshot invalidation failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	cart, err := c.refresh(ctx, st, sessionID)
	if err != nil {
		return nil, err
	}

	c.events.CartRefreshed(ctx, sessionID, cart)
	return cart, nil
}

// AddToCart adds the product to the session's cart and returns the refreshed
// cart. A quantity below 1 means the staged quantity from the detail view.
// The staged quantity resets to 1 after a successful add.
func (c *Core) AddToCart(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		quantity = c.StagedQuantity(sessionID, productID)
	}

	cart, err := c.mutate(ctx, sessionID, func(ctx context.Context) error {
		return c.store.AddItem(ctx, sessionID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}

	c.resetStaged(sessionID, productID)
	return cart, nil
}

// RemoveFromCart removes the cart line and returns the refreshed cart.
// Removing a line that is already gone is treated as success; the goal state
// holds either way.
func (c *Core) RemoveFromCart(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	return c.mutate(ctx, sessionID, func(ctx context.Context) error {
		err := c.store.RemoveItem(ctx, sessionID, itemID)
		if err != nil && errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	})
}

// ClearCart empties the session's cart and returns the refreshed (empty)
// cart. Clearing an empty cart succeeds.
func (c *Core) ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return c.mutate(ctx, sessionID, func(ctx context.Context) error {
		return c.store.Clear(ctx, sessionID)
	})
}

// Cart returns the session's cart, from the snapshot cache when possible.
func (c *Core) Cart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if cart, ok := c.cache.GetCart(ctx, sessionID); ok {
		return cart, nil
	}
	return c.refresh(ctx, c.session(sessionID), sessionID)
}

// CartCount returns the total item quantity, from the snapshot cache when
// possible. On a miss only the count is fetched, not the full cart.
func (c *Core) CartCount(ctx context.Context, sessionID string) (int, error) {
	if count, ok := c.cache.GetCount(ctx, sessionID); ok {
		return count, nil
	}

	count, err := c.store.GetCartCount(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	c.cache.SetCount(ctx, sessionID, count)
	return count, nil
}
