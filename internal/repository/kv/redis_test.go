package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-cart/internal/domain"
)

func setupTestRedis(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "storefront:"), mr
}

func TestRedisGet_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), "cart")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisSetAndGet(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cart", `{"items":[],"itemsSubtotal":0}`))

	raw, err := mr.Get("storefront:cart")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[],"itemsSubtotal":0}`, raw)
	assert.Zero(t, mr.TTL("storefront:cart"), "cart key must not expire")

	got, err := store.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestRedisRemove(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("storefront:cart", "x"))
	require.NoError(t, store.Remove(ctx, "cart"))
	assert.False(t, mr.Exists("storefront:cart"))

	// removing a missing key is not an error
	assert.NoError(t, store.Remove(ctx, "cart"))
}

func TestRedisGet_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Get(context.Background(), "cart")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}
