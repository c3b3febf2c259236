package domain

import "fmt"

// DefaultCurrency is used when the remote cart service omits a currency.
const DefaultCurrency = "€"

// CartItem represents a single line in the cart. The item ID is assigned by
// the remote cart service. Only the product ID is held; the product itself is
// always resolved through the catalog so the cart never carries stale
// denormalized product data.
type CartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is a snapshot of the authoritative remote cart. Total is the
// server-declared total in minor units; it is never recomputed locally, so
// server-side pricing rules the client does not model cannot drift.
type Cart struct {
	Items    []CartItem `json:"items"`
	Currency string     `json:"currency"`
	Total    int64      `json:"total"`
}

// ItemCount returns the sum of quantities across all items. It must agree
// with the remote cartCount query after a refresh.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// DisplayCurrency returns the cart currency, falling back to the default
// symbol when the remote service omits it.
func (c *Cart) DisplayCurrency() string {
	if c.Currency == "" {
		return DefaultCurrency
	}
	return c.Currency
}

// Validate checks the invariants a well-formed remote snapshot must hold:
// every item has an ID, references a product, and carries quantity >= 1.
// A zero-quantity item is a protocol violation; the remote service removes
// items instead of retaining them at zero.
func (c *Cart) Validate() error {
	for i, item := range c.Items {
		if item.ID == "" {
			return fmt.Errorf("cart item %d: missing id", i)
		}
		if item.ProductID == "" {
			return fmt.Errorf("cart item %s: missing product reference", item.ID)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("cart item %s: quantity %d below 1", item.ID, item.Quantity)
		}
	}
	return nil
}
