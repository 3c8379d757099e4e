package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viatura/checkout/internal/cart"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func sampleLines() []cart.Line {
	return []cart.Line{
		{ID: "l1", ProductID: 1, Quantity: 2, TotalPrice: decimal.NewFromFloat(120.50)},
		{ID: "l2", ProductID: 2, Quantity: 1, TotalPrice: decimal.NewFromFloat(45.00)},
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess-123"

	data, _ := json.Marshal(sampleLines())
	mr.Set(cacheKey(sessionID), string(data))

	result, err := cache.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "l1", result[0].ID)
	assert.True(t, result[0].TotalPrice.Equal(decimal.NewFromFloat(120.50)))
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set(cacheKey("sess-123"), "{not json")

	_, err := cache.Get(context.Background(), "sess-123")
	assert.ErrorContains(t, err, "unmarshal cart lines failed")
}

func TestSet_RoundTrip(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess-123"

	require.NoError(t, cache.Set(ctx, sessionID, sampleLines()))

	result, err := cache.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestSet_AppliesTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.Set(context.Background(), "sess-123", sampleLines()))

	ttl := mr.TTL(cacheKey("sess-123"))
	assert.Greater(t, ttl.Minutes(), 14.0)
}

func TestDelete(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	sessionID := "sess-123"

	require.NoError(t, cache.Set(ctx, sessionID, sampleLines()))
	require.NoError(t, cache.Delete(ctx, sessionID))

	_, err := cache.Get(ctx, sessionID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDelete_MissingKeyIsNoOp(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	assert.NoError(t, cache.Delete(context.Background(), "nonexistent"))
}
