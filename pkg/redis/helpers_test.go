package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

func newTestCache(t *testing.T) (*ItemCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := NewClient(srv.Addr(), "")
	t.Cleanup(func() { _ = client.Close() })
	return NewItemCache(client, time.Hour), srv
}

func TestItemCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	item := &models.Item{ID: bson.NewObjectID(), SKU: "WID-001", Name: "Widget", Quantity: 3, CategoryID: "tools"}
	require.NoError(t, cache.CacheItem(ctx, item))

	got, err := cache.GetItem(ctx, item.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	bySKU, err := cache.GetItemBySKU(ctx, "WID-001")
	require.NoError(t, err)
	assert.Equal(t, item.ID, bySKU.ID)

	recent, err := cache.RecentItemIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID.Hex()}, recent)

	require.NoError(t, cache.RemoveItem(ctx, item))
	_, err = cache.GetItem(ctx, item.ID.Hex())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestItemCacheRecentListIsDeduplicated(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	item := &models.Item{ID: bson.NewObjectID(), SKU: "A-1", Name: "A"}
	require.NoError(t, cache.CacheItem(ctx, item))
	require.NoError(t, cache.CacheItem(ctx, item))

	recent, err := cache.RecentItemIDs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestItemCacheExpiry(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	item := &models.Item{ID: bson.NewObjectID(), SKU: "B-1", Name: "B"}
	require.NoError(t, cache.CacheItem(ctx, item))

	srv.FastForward(2 * time.Hour)

	_, err := cache.GetItem(ctx, item.ID.Hex())
	assert.ErrorIs(t, err, ErrCacheMiss)
}
