package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

const (
	defaultItemTTL  = 24 * time.Hour
	recentItemsKey  = "items:recent"
	recentItemsKeep = 100
)

// ErrCacheMiss is returned when an item is not cached.
var ErrCacheMiss = errors.New("cache miss")

// ItemCache is a cache-aside layer in front of the item store.
type ItemCache struct {
	client *redisclient.Client
	ttl    time.Duration
}

func NewItemCache(client *redisclient.Client, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = defaultItemTTL
	}
	return &ItemCache{client: client, ttl: ttl}
}

func itemKey(id string) string {
	return fmt.Sprintf("item:%s", id)
}

func skuKey(sku string) string {
	return fmt.Sprintf("sku:%s", sku)
}

func categoryKey(category string) string {
	return fmt.Sprintf("category:%s", category)
}

// CacheItem stores an item under its ID, maps its SKU and tracks it in the recent list.
func (c *ItemCache) CacheItem(ctx context.Context, item *models.Item) error {
	itemJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", item.SKU, err)
	}

	id := item.ID.Hex()
	pipe := c.client.TxPipeline()

	pipe.Set(ctx, itemKey(id), itemJSON, c.ttl)
	pipe.Set(ctx, skuKey(item.SKU), id, c.ttl)

	if item.CategoryID != "" {
		pipe.LRem(ctx, categoryKey(item.CategoryID), 0, id)
		pipe.LPush(ctx, categoryKey(item.CategoryID), id)
		pipe.Expire(ctx, categoryKey(item.CategoryID), c.ttl)
	}

	pipe.LRem(ctx, recentItemsKey, 0, id)
	pipe.LPush(ctx, recentItemsKey, id)
	pipe.LTrim(ctx, recentItemsKey, 0, recentItemsKeep-1)
	pipe.Expire(ctx, recentItemsKey, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for item %s: %w", item.SKU, err)
	}
	return nil
}

func (c *ItemCache) GetItem(ctx context.Context, id string) (*models.Item, error) {
	itemJSON, err := c.client.Get(ctx, itemKey(id)).Result()
	if errors.Is(err, redisclient.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var item models.Item
	if err := json.Unmarshal([]byte(itemJSON), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &item, nil
}

func (c *ItemCache) GetItemBySKU(ctx context.Context, sku string) (*models.Item, error) {
	id, err := c.client.Get(ctx, skuKey(sku)).Result()
	if errors.Is(err, redisclient.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return c.GetItem(ctx, id)
}

// RemoveItem drops the item and every index entry that references it.
func (c *ItemCache) RemoveItem(ctx context.Context, item *models.Item) error {
	id := item.ID.Hex()
	pipe := c.client.TxPipeline()

	pipe.Del(ctx, itemKey(id))
	pipe.Del(ctx, skuKey(item.SKU))
	if item.CategoryID != "" {
		pipe.LRem(ctx, categoryKey(item.CategoryID), 0, id)
	}
	pipe.LRem(ctx, recentItemsKey, 0, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove item from Redis cache: %w", err)
	}
	return nil
}

// RecentItemIDs lists the most recently cached item IDs, newest first.
func (c *ItemCache) RecentItemIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > recentItemsKeep {
		limit = recentItemsKeep
	}
	return c.client.LRange(ctx, recentItemsKey, 0, int64(limit-1)).Result()
}

func (c *ItemCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
