package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kitpress-go/framework/internal/config"
)

type user struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func newMemoryCache() *Cache {
	return New(NewMemoryStore(time.Minute, 0), nil)
}

func TestCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	defer c.Close()

	var missing user
	require.ErrorIs(t, c.Get(ctx, "u", &missing), ErrNotFound)

	require.NoError(t, c.Set(ctx, "u", user{Name: "ada", Age: 36}, 0))

	got, err := GetAs[user](ctx, c, "u")
	require.NoError(t, err)
	require.Equal(t, user{Name: "ada", Age: 36}, got)

	has, err := c.Has(ctx, "u")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, c.Delete(ctx, "u"))
	has, err = c.Has(ctx, "u")
	require.NoError(t, err)
	require.False(t, has)
}

func TestCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()

	require.NoError(t, c.Set(ctx, "short", 1, time.Millisecond))
	require.NoError(t, c.Forever(ctx, "forever", 2))

	time.Sleep(10 * time.Millisecond)

	_, err := GetAs[int](ctx, c, "short")
	require.ErrorIs(t, err, ErrNotFound)

	v, err := GetAs[int](ctx, c, "forever")
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCache_Errors(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()

	require.ErrorIs(t, c.Set(ctx, "bad", make(chan int), 0), ErrMarshal)

	require.NoError(t, c.Set(ctx, "text", "hello", 0))
	_, err := GetAs[int](ctx, c, "text")
	require.ErrorIs(t, err, ErrUnmarshal)
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 0)
	c := New(store, nil)

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	require.Equal(t, 2, store.Len())

	require.NoError(t, c.Clear(ctx))
	require.Equal(t, 0, store.Len())
	require.Same(t, store, c.Store())
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	var calls atomic.Int32

	compute := func(context.Context) (user, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return user{Name: "grace"}, nil
	}

	var wg sync.WaitGroup
	results := make([]user, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Remember(ctx, c, "profile", time.Minute, compute)
		}()
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, "grace", got.Name)
	}
	require.Equal(t, int32(1), calls.Load())

	got, err := Remember(ctx, c, "profile", time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, "grace", got.Name)
	require.Equal(t, int32(1), calls.Load())
}

func TestRemember_ErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	boom := errors.New("boom")
	attempts := 0

	fn := func(context.Context) (int, error) {
		attempts++
		if attempts == 1 {
			return 0, boom
		}
		return 7, nil
	}

	_, err := Remember(ctx, c, "n", 0, fn)
	require.ErrorIs(t, err, boom)

	v, err := Remember(ctx, c, "n", 0, fn)
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, 2, attempts)
}

func TestConfigFrom(t *testing.T) {
	store := config.New()
	require.NoError(t, store.Load("cache"))

	cfg := ConfigFrom(store, "shop")
	require.Equal(t, "memory", cfg.Driver)
	require.Equal(t, "shop", cfg.Prefix)
	require.Equal(t, 10*time.Minute, cfg.TTL)
	require.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
}

func TestOpen(t *testing.T) {
	c, err := Open(Config{Driver: "memory", TTL: time.Minute}, nil)
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, c.Store())

	c, err = Open(Config{Driver: "redis", Prefix: "shop", RedisAddr: "127.0.0.1:0"}, nil)
	require.NoError(t, err)
	rs, ok := c.Store().(*RedisStore)
	require.True(t, ok)
	require.Equal(t, "shop:key", rs.prefixedKey("key"))
	require.NoError(t, c.Close())

	_, err = Open(Config{Driver: "memcached"}, nil)
	require.Error(t, err)
}

func TestRedisStore_PrefixedKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	require.Equal(t, "key", NewRedisStore(client, "", time.Minute).prefixedKey("key"))
	require.Equal(t, "blog:key", NewRedisStore(client, "blog", time.Minute).prefixedKey("key"))
}
