package cache_test

import (
	"context"
	"testing"
	"time"

	"storefront/pkg/cache"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNilCacheIsANoop(t *testing.T) {
	var c *cache.Cache
	ctx := context.Background()

	var out []string
	assert.False(t, c.GetJSON(ctx, cache.KeyBanners, &out))
	c.SetJSON(ctx, cache.KeyBanners, []string{"a"})
	c.Invalidate(ctx, cache.KeyBanners)
	assert.NoError(t, c.Close())
}

func TestUnreachableRedisCountsAsMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := cache.New(rdb, time.Minute, nil)
	defer c.Close()

	ctx := context.Background()
	c.SetJSON(ctx, cache.KeyFeaturedProducts, []string{"p1"})

	var out []string
	assert.False(t, c.GetJSON(ctx, cache.KeyFeaturedProducts, &out))
	assert.Empty(t, out)
}

func TestConnectFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cache.Connect(ctx, cache.Config{Addr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
