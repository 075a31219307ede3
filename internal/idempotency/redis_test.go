package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Hour), mr
}

func TestReserve_FirstCallerOwnsKey(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	result, err := store.Reserve(ctx, "checkout:u1:abc")
	require.NoError(t, err)
	assert.Empty(t, result)

	val, err := mr.Get("idempotency:checkout:u1:abc")
	require.NoError(t, err)
	assert.Equal(t, pendingValue, val)

	_, err = store.Reserve(ctx, "checkout:u1:abc")
	assert.ErrorIs(t, err, ErrInProgress)
}

func TestComplete_ReturnsStoredResult(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, "k", "order-42"))

	result, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "order-42", result)
	assert.Equal(t, time.Hour, mr.TTL("idempotency:k"))
}

func TestRelease_AllowsRetry(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k"))

	result, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestReserve_PendingExpires(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	result, err := store.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, result)
}
