package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/naveen554/jaggaer-storefront/internal/domain"
)

const (
	cartKeyPrefix  = "cart:"
	countKeyPrefix = "cartcount:"
)

// SnapshotCache keeps per-session copies of the last refreshed cart and cart
// count in Redis. The cart and count keys are always invalidated together so
// a reader can never observe a count from one refresh alongside a cart from
// another.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache creates a snapshot cache with the given TTL.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

func cartKey(sessionID string) string  { return cartKeyPrefix + sessionID }
func countKey(sessionID string) string { return countKeyPrefix + sessionID }

// GetCart returns the cached cart snapshot, or ok=false on a miss. Cache
// errors degrade to a miss; the authoritative store is always available as
// fallback.
func (c *SnapshotCache) GetCart(ctx context.Context, sessionID string) (*domain.Cart, bool) {
	raw, err := c.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cart snapshot read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		c.logger.WarnContext(ctx, "cart snapshot corrupt, discarding", slog.String("error", err.Error()))
		_ = c.client.Del(ctx, cartKey(sessionID)).Err()
		return nil, false
	}
	return &cart, true
}

// SetCart stores a refreshed cart snapshot together with its item count, so
// both keys reflect the same refresh.
func (c *SnapshotCache) SetCart(ctx context.Context, sessionID string, cart *domain.Cart) {
	raw, err := json.Marshal(cart)
	if err != nil {
		c.logger.WarnContext(ctx, "cart snapshot encode failed", slog.String("error", err.Error()))
		return
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, cartKey(sessionID), raw, c.ttl)
	pipe.Set(ctx, countKey(sessionID), strconv.Itoa(cart.ItemCount()), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "cart snapshot write failed", slog.String("error", err.Error()))
	}
}

// GetCount returns the cached item count, or ok=false on a miss.
func (c *SnapshotCache) GetCount(ctx context.Context, sessionID string) (int, bool) {
	raw, err := c.client.Get(ctx, countKey(sessionID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cart count read failed", slog.String("error", err.Error()))
		}
		return 0, false
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		_ = c.client.Del(ctx, countKey(sessionID)).Err()
		return 0, false
	}
	return count, true
}

// SetCount stores just the item count. Used when only the count was refreshed.
func (c *SnapshotCache) SetCount(ctx context.Context, sessionID string, count int) {
	if err := c.client.Set(ctx, countKey(sessionID), strconv.Itoa(count), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cart count write failed", slog.String("error", err.Error()))
	}
}

// Invalidate drops both the cart and count snapshots for the session in a
// single pipeline. Called after every mutation, before the refresh.
func (c *SnapshotCache) Invalidate(ctx context.Context, sessionID string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, cartKey(sessionID))
	pipe.Del(ctx, countKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate cart snapshot: %w", err)
	}
	return nil
}
