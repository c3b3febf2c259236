// Package postgres implements purchase persistence on PostgreSQL. Cart lines
// are stored as a JSONB column; purchases are append-only.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/naveen554/jaggaer-storefront/internal/domain"
)

// DBTX is the database access contract, satisfied by *pgxpool.Pool and by
// pgxmock in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PurchaseRepository persists purchases in PostgreSQL.
type PurchaseRepository struct {
	db DBTX
}

// NewPurchaseRepository creates a repository backed by the given database.
func NewPurchaseRepository(db DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const createPurchaseQuery = `
	INSERT INTO purchases (id, session_id, items, total, currency, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

// Create inserts a completed purchase.
func (r *PurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	items, err := json.Marshal(purchase.Items)
	if err != nil {
		return fmt.Errorf("encode purchase items: %w", err)
	}

	_, err = r.db.Exec(ctx, createPurchaseQuery,
		purchase.ID,
		purchase.SessionID,
		items,
		purchase.Total,
		purchase.Currency,
		purchase.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

const listBySessionQuery = `
	SELECT id, session_id, items, total, currency, created_at
	FROM purchases
	WHERE session_id = $1
	ORDER BY created_at DESC`

// ListBySession returns the session's purchases, newest first.
func (r *PurchaseRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Purchase, error) {
	rows, err := r.db.Query(ctx, listBySessionQuery, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	purchases := []domain.Purchase{}
	for rows.Next() {
		var p domain.Purchase
		var items []byte
		if err := rows.Scan(&p.ID, &p.SessionID, &items, &p.Total, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, fmt.Errorf("decode purchase items: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return purchases, nil
		}
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}
