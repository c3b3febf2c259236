// Package repository defines persistence contracts for completed purchases.
package repository

import (
	"context"

	"github.com/naveen554/jaggaer-storefront/internal/domain"
)

// PurchaseRepository stores completed purchases.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Purchase, error)
}
