package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/models"
)

const ItemCacheTTL = 10 * time.Minute

// ItemCache keeps JSON copies of menu items under item:<id>.
type ItemCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewItemCache(client *redis.Client) *ItemCache {
	return &ItemCache{client: client, ttl: ItemCacheTTL}
}

func itemKey(id uuid.UUID) string {
	return "item:" + id.String()
}

// Get returns the cached item, or nil on a miss.
func (c *ItemCache) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	data, err := c.client.Get(ctx, itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read item cache")
	}
	var item models.Item
	if err := json.Unmarshal(data, &item); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		log.Warn().Err(err).Str("item_id", id.String()).Msg("Discarding unreadable cached item")
		c.client.Del(ctx, itemKey(id))
		return nil, nil
	}
	return &item, nil
}

func (c *ItemCache) Set(ctx context.Context, item *models.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return errors.Wrap(err, "failed to encode item")
	}
	return errors.Wrap(c.client.Set(ctx, itemKey(item.ID), data, c.ttl).Err(), "failed to write item cache")
}

func (c *ItemCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return errors.Wrap(c.client.Del(ctx, itemKey(id)).Err(), "failed to invalidate item cache")
}
