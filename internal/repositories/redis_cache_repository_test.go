package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "resource-system/pkg/errors"
)

func TestRedisCacheRepository_KeyNamespace(t *testing.T) {
	assert.Equal(t, "auth:login_lock:a@b.c", (&RedisCacheRepository{namespace: "auth"}).key("login_lock:a@b.c"))
	assert.Equal(t, "plain", (&RedisCacheRepository{}).key("plain"))
}

func TestRedisCacheRepository_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	cache := NewRedisCacheRepository(client, "test")
	require.NoError(t, cache.Del(ctx, "counter", "marker"))

	_, err := cache.Get(ctx, "marker")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	n, err := cache.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	ok, err := cache.Expire(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Set(ctx, "marker", 3, time.Minute))
	v, err := cache.Get(ctx, "marker")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	raw, err := client.Get(ctx, "test:marker").Result()
	require.NoError(t, err)
	assert.Equal(t, "3", raw)

	require.NoError(t, cache.Del(ctx, "counter", "marker"))
	_, err = cache.Get(ctx, "counter")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
