package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naveen554/jaggaer-storefront/internal/cartstore"
	"github.com/naveen554/jaggaer-storefront/internal/domain"
	apperrors "github.com/naveen554/jaggaer-storefront/pkg/errors"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if cart := args.Get(0); cart != nil {
		return cart.(*domain.Cart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetCartCount(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) AddItem(ctx context.Context, sessionID, productID string, quantity int) error {
	args := m.Called(ctx, sessionID, productID, quantity)
	return args.Error(0)
}

func (m *mockStore) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	args := m.Called(ctx, sessionID, itemID)
	return args.Error(0)
}

func (m *mockStore) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type recordingPublisher struct {
	refreshed []string
}

func (p *recordingPublisher) CartRefreshed(_ context.Context, sessionID string, _ *domain.Cart) {
	p.refreshed = append(p.refreshed, sessionID)
}

func newTestCore(t *testing.T) (*Core, *mockStore, *cartstore.SnapshotCache, *recordingPublisher) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cache := cartstore.NewSnapshotCache(client, 5*time.Minute, logger)
	store := &mockStore{}
	pub := &recordingPublisher{}
	return New(store, cache, pub, logger), store, cache, pub
}

func cartWith(items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{Items: items, Currency: "EUR"}
}

func TestStagedQuantity_DefaultsToOne(t *testing.T) {
	c, _, _, _ := newTestCore(t)
	assert.Equal(t, 1, c.StagedQuantity("s1", "p1"))
}

func TestStagedQuantity_IncrementDecrement(t *testing.T) {
	c, _, _, _ := newTestCore(t)

	assert.Equal(t, 2, c.IncrementStaged("s1", "p1"))
	assert.Equal(t, 3, c.IncrementStaged("s1", "p1"))
	assert.Equal(t, 2, c.DecrementStaged("s1", "p1"))
	assert.Equal(t, 1, c.DecrementStaged("s1", "p1"))

	// Clamped at 1, never below.
	assert.Equal(t, 1, c.DecrementStaged("s1", "p1"))
	assert.Equal(t, 1, c.StagedQuantity("s1", "p1"))
}

func TestStagedQuantity_IsolatedPerSessionAndProduct(t *testing.T) {
	c, _, _, _ := newTestCore(t)

	c.IncrementStaged("s1", "p1")
	assert.Equal(t, 2, c.StagedQuantity("s1", "p1"))
	assert.Equal(t, 1, c.StagedQuantity("s1", "p2"))
	assert.Equal(t, 1, c.StagedQuantity("s2", "p1"))
}

func TestAddToCart_AddsStagedQuantityAndRefreshes(t *testing.T) {
	c, store, _, pub := newTestCore(t)
	ctx := context.Background()

	c.IncrementStaged("s1", "p1")
	c.IncrementStaged("s1", "p1")

	store.On("AddItem", mock.Anything, "s1", "p1", 3).Return(nil).Once()
	store.On("GetCart", mock.Anything, "s1").
		Return(cartWith(domain.CartItem{ID: "i1", ProductID: "p1", Quantity: 3}), nil).Once()

	cart, err := c.AddToCart(ctx, "s1", "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.ItemCount())

	// Staged quantity resets after a successful add.
	assert.Equal(t, 1, c.StagedQuantity("s1", "p1"))
	assert.Equal(t, []string{"s1"}, pub.refreshed)
	store.AssertExpectations(t)
}

func TestAddToCart_ExplicitQuantityOverridesStaged(t *testing.T) {
	c, store, _, _ := newTestCore(t)
	ctx := context.Background()

	c.IncrementStaged("s1", "p1")
	c.IncrementStaged("s1", "p1")

	store.On("AddItem", mock.Anything, "s1", "p1", 2).Return(nil).Once()
	store.On("GetCart", mock.Anything, "s1").
		Return(cartWith(domain.CartItem{ID: "i1", ProductID: "p1", Quantity: 2}), nil).Once()

	_, err := c.AddToCart(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestAddToCart_StoreFailureSkipsRefresh(t *testing.T) {
	c, store, _, pub := newTestCore(t)

	store.On("AddItem", mock.Anything, "s1", "p1", 1).
		Return(apperrors.ServiceUnavailable("cart-service: down")).Once()

	_, err := c.AddToCart(context.Background(), "s1", "p1", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Empty(t, pub.refreshed)
	store.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
}

func TestAddToCart_RefreshedCartReplacesCachedSnapshot(t *testing.T) {
	c, store, cache, _ := newTestCore(t)
	ctx := context.Background()

	// Seed a stale snapshot.
	cache.SetCart(ctx, "s1", cartWith())

	store.On("AddItem", mock.Anything, "s1", "p1", 1).Return(nil).Once()
	store.On("GetCart", mock.Anything, "s1").
		Return(cartWith(domain.CartItem{ID: "i1", ProductID: "p1", Quantity: 1}), nil).Once()

	_, err := c.AddToCart(ctx, "s1", "p1", 0)
	require.NoError(t, err)

	cached, ok := cache.GetCart(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, 1, cached.ItemCount())

	count, ok := cache.GetCount(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestCart_StaleRefreshDiscarded(t *testing.T) {
	c, store, cache, _ := newTestCore(t)
	ctx := context.Background()

	stale := cartWith()
	fresh := cartWith(domain.CartItem{ID: "i1", ProductID: "p1", Quantity: 1})

	started := make(chan struct{})
	release := make(chan struct{})

	// The first read-path refresh stalls inside GetCart until released.
	store.On("GetCart", mock.Anything, "s1").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(stale, nil).Once()
	store.On("AddItem", mock.Anything, "s1", "p1", 1).Return(nil).Once()
	store.On("GetCart", mock.Anything, "s1").Return(fresh, nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Cart(ctx, "s1")
	}()
	<-started

	// A mutation refresh completes while the earlier read is still in flight.
	_, err := c.AddToCart(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	close(release)
	<-done

	// The slow read finished last but its out-of-order result must not
	// overwrite the newer snapshot.
	cached, ok := cache.GetCart(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, 1, cached.ItemCount())
	store.AssertExpectations(t)
}

func TestRemoveFromCart_AbsorbsNotFound(t *testing.T) {
	c, store, _, pub := newTestCore(t)

	store.On("RemoveItem", mock.Anything, "s1", "i9").
		Return(apperrors.NotFound("cart item", "i9")).Once()
	store.On("GetCart", mock.Anything, "s1").Return(cartWith(), nil).Once()

	cart, err := c.RemoveFromCart(context.Background(), "s1", "i9")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Len(t, pub.refreshed, 1)
}

func TestRemoveFromCart_OtherErrorsPropagate(t *testing.T) {
	c, store, _, _ := newTestCore(t)

	store.On("RemoveItem", mock.Anything, "s1", "i1").
		Return(apperrors.ServiceUnavailable("cart-service: down")).Once()

	_, err := c.RemoveFromCart(context.Background(), "s1", "i1")
	require.Error(t, err)
	store.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
}

func TestClearCart(t *testing.T) {
	c, store, cache, pub := newTestCore(t)
	ctx := context.Background()

	store.On("Clear", mock.Anything, "s1").Return(nil).Once()
	store.On("GetCart", mock.Anything, "s1").Return(cartWith(), nil).Once()

	cart, err := c.ClearCart(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Len(t, pub.refreshed, 1)

	count, ok := cache.GetCount(ctx, "s1")
	require.True(t, ok)
	assert.Zero(t, count)
}

func TestCart_ReadThrough(t *testing.T) {
	c, store, cache, _ := newTestCore(t)
	ctx := context.Background()

	store.On("GetCart", mock.Anything, "s1").
		Return(cartWith(domain.CartItem{ID: "i1", ProductID: "p1", Quantity: 2}), nil).Once()

	// Miss populates the cache.
	cart, err := c.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())

	_, ok := cache.GetCart(ctx, "s1")
	assert.True(t, ok)

	// Second read is served from the cache; the single Once expectation
	// would fail if the store were hit again.
	cart, err = c.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())
	store.AssertExpectations(t)
}

func TestCartCount_ReadThrough(t *testing.T) {
	c, store, _, _ := newTestCore(t)
	ctx := context.Background()

	store.On("GetCartCount", mock.Anything, "s1").Return(4, nil).Once()

	count, err := c.CartCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = c.CartCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	store.AssertExpectations(t)
}

func TestCartCount_StoreError(t *testing.T) {
	c, store, _, _ := newTestCore(t)

	store.On("GetCartCount", mock.Anything, "s1").
		Return(0, apperrors.ServiceUnavailable("cart-service: down")).Once()

	_, err := c.CartCount(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestMutationsSerializedPerSession(t *testing.T) {
	c, store, _, _ := newTestCore(t)
	ctx := context.Background()

	var inFlight, maxInFlight int
	store.On("AddItem", mock.Anything, "s1", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			time.Sleep(time.Millisecond)
			inFlight--
		}).Return(nil)
	store.On("GetCart", mock.Anything, "s1").Return(cartWith(), nil)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = c.AddToCart(ctx, "s1", "p1", 0)
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	// The session lock admits one mutation at a time, so the store never
	// sees overlapping AddItem calls and the counters need no extra locking.
	assert.Equal(t, 1, maxInFlight)
}
