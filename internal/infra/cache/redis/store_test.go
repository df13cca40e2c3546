package redisx

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/infra/database/storetest"
)

// Интеграционный прогон: BOOKMODULE_TEST_REDIS=localhost:6379 go test ./...
func TestStoreConformance(t *testing.T) {
	addr := os.Getenv("BOOKMODULE_TEST_REDIS")
	if addr == "" {
		t.Skip("BOOKMODULE_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })

	storetest.Run(t, func(t *testing.T) domain.Store {
		// отдельный префикс на каждый подтест, пустое хранилище без FLUSHDB
		c := newWithClient(rdb, "bookmodule-test:"+uuid.NewString()+":", zerolog.Nop())
		return c.Store()
	})
}

func TestCacheSetNX(t *testing.T) {
	addr := os.Getenv("BOOKMODULE_TEST_REDIS")
	if addr == "" {
		t.Skip("BOOKMODULE_TEST_REDIS not set")
	}
	ctx := context.Background()
	c := New(Config{Addr: addr}, zerolog.Nop())
	t.Cleanup(c.Close)

	key := "bookmodule-test:" + uuid.NewString()
	ok, err := c.SetNX(ctx, key, []byte("1"), 5)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = c.SetNX(ctx, key, []byte("1"), 5)
	require.NoError(t, err)
	require.False(t, ok)

	exists, err := c.Exists(ctx, key)
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, c.Del(ctx, key))
}
