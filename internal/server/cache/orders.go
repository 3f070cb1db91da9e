package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/logging"
	"github.com/ordermeow/ordermeow/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "ordermeow:orders:"
	DefaultTTL = 5 * time.Minute
)

// Key is the Redis key holding userID's order listing.
func Key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

type LoadFunc func(ctx context.Context) ([]*models.Order, error)

// OrderCache is a cache-aside store for order listings. A nil client turns
// every call into a pass-through.
type OrderCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logging.Logger
}

func NewOrderCache(client *redis.Client, ttl time.Duration, log logging.Logger) *OrderCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logging.NopLogger{}
	}
	return &OrderCache{client: client, ttl: ttl, log: log.With("module", "order_cache")}
}

// GetOrLoad returns the cached listing or calls load and stores its result.
// Only load errors are returned.
func (c *OrderCache) GetOrLoad(ctx context.Context, userID uuid.UUID, load LoadFunc) ([]*models.Order, error) {
	if c.client == nil {
		return load(ctx)
	}

	key := Key(userID)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var orders []*models.Order
		if err := json.Unmarshal(raw, &orders); err == nil {
			return orders, nil
		}
		c.log.Warn(ctx, "discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn(ctx, "cache read failed", "key", key, "error", err)
	}

	orders, err := load(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(orders)
	if err != nil {
		c.log.Warn(ctx, "cache encode failed", "key", key, "error", err)
		return orders, nil
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
	return orders, nil
}

// Invalidate drops userID's listing. Failures are logged; the entry then
// expires with its TTL.
func (c *OrderCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, Key(userID)).Err(); err != nil {
		c.log.Warn(ctx, "cache invalidate failed", "key", Key(userID), "error", err)
	}
}
