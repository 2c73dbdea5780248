package costbasis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clear test DB
	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func TestRedisStore_AppendAndRead(t *testing.T) {
	client := setupTestRedis(t)
	defer func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	}()

	store, err := NewRedisStore(client)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.AppendFill(ctx, testWallet, testMint, Fill{
		Side:      models.DirectionBuy,
		Amount:    100,
		MarketCap: 1_000_000,
		Timestamp: time.Now(),
	}))
	require.NoError(t, store.AppendFill(ctx, testWallet, testMint, Fill{
		Side:      models.DirectionSell,
		Amount:    40,
		MarketCap: 2_000_000,
		Timestamp: time.Now(),
	}))

	fills, err := store.Fills(ctx, testWallet, testMint)
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, models.DirectionBuy, fills[0].Side)
	assert.Equal(t, models.DirectionSell, fills[1].Side)

	// Pairs are isolated.
	other, err := store.Fills(ctx, "other-wallet", testMint)
	require.NoError(t, err)
	assert.Empty(t, other)

	// Retention TTL is set on the key.
	ttl, err := client.TTL(ctx, "costbasis:"+testWallet+":"+testMint).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 24*time.Hour)
}
