package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/naveen554/jaggaer-storefront/pkg/errors"
	"github.com/naveen554/jaggaer-storefront/pkg/httpclient"
)

func newTestStore(t *testing.T, handler http.Handler) *RemoteStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return NewRemoteStore(srv.URL, httpclient.New(cfg))
}

func TestGetCart(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/cart", r.URL.Path)
		assert.Equal(t, "sess-1", r.Header.Get("X-Session-ID"))
		_, _ = w.Write([]byte(`{"data":{"items":[{"id":"i1","product_id":"p1","quantity":2}],"currency":"EUR","total":25998}}`))
	}))

	cart, err := store.GetCart(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(25998), cart.Total)
	assert.Equal(t, 2, cart.ItemCount())
}

func TestGetCart_EmptySession(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":null,"total":0}}`))
	}))

	cart, err := store.GetCart(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.NotNil(t, cart.Items)
	assert.True(t, cart.IsEmpty())
}

func TestGetCart_MalformedSnapshotRejected(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[{"id":"i1","product_id":"p1","quantity":0}]}}`))
	}))

	_, err := store.GetCart(context.Background(), "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity 0 below 1")
}

func TestGetCartCount(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cart/count", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"count":5}}`))
	}))

	count, err := store.GetCartCount(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestAddItem(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/cart/items", r.URL.Path)
		assert.Equal(t, "sess-1", r.Header.Get("X-Session-ID"))

		var body struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body.ProductID)
		assert.Equal(t, 2, body.Quantity)

		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, store.AddItem(context.Background(), "sess-1", "p1", 2))
}

func TestAddItem_EmptyProductID(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	err := store.AddItem(context.Background(), "sess-1", "", 1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestAddItem_QuantityBelowOne(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	err := store.AddItem(context.Background(), "sess-1", "p1", 0)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRemoveItem(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/cart/items/i1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, store.RemoveItem(context.Background(), "sess-1", "i1"))
}

func TestRemoveItem_NotFound(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"cart item i9 not found"}}`))
	}))

	err := store.RemoveItem(context.Background(), "sess-1", "i9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestClear(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/cart", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, store.Clear(context.Background(), "sess-1"))
}

func TestClear_ServiceDown(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := store.Clear(context.Background(), "sess-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}
