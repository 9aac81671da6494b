package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mostrador/internal/config"
)

func TestOrderCreateKey(t *testing.T) {
	assert.Equal(t, "idem:order:create:7:abc-123", OrderCreateKey(7, "abc-123"))
	assert.NotEqual(t, OrderCreateKey(1, "k"), OrderCreateKey(2, "k"))
}

func setupStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	addr := os.Getenv("MOSTRADOR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MOSTRADOR_TEST_REDIS_ADDR not set")
	}

	client, err := NewClient(config.RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewIdempotencyStore(client, time.Minute)
}

func TestIdempotencyStore_ClaimCompleteRelease(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	key := "test-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { store.client.Del(ctx, OrderCreateKey(1, key)) })

	orderID, claimed, err := store.Claim(ctx, 1, key)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Zero(t, orderID)

	// a concurrent request sees the key as pending
	orderID, claimed, err = store.Claim(ctx, 1, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Zero(t, orderID)

	require.NoError(t, store.Complete(ctx, 1, key, 42))

	orderID, claimed, err = store.Claim(ctx, 1, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, uint(42), orderID)

	// a completed key survives release
	require.NoError(t, store.Release(ctx, 1, key))
	orderID, _, err = store.Claim(ctx, 1, key)
	require.NoError(t, err)
	assert.Equal(t, uint(42), orderID)

	// keys are scoped per user
	_, claimed, err = store.Claim(ctx, 2, key)
	require.NoError(t, err)
	assert.True(t, claimed)
	require.NoError(t, store.Release(ctx, 2, key))
	_, claimed, err = store.Claim(ctx, 2, key)
	require.NoError(t, err)
	assert.True(t, claimed)
	require.NoError(t, store.Release(ctx, 2, key))
}
