package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisThrottle_ErrorSinServidor(t *testing.T) {
	th := NewRedisThrottle(unreachableClient(t), time.Hour, "gestion:")
	ctx := context.Background()

	ok, err := th.Allow(ctx, "stock-alert:LOW_STOCK:p1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "stock-alert:LOW_STOCK:p1")

	had, err := th.Reset(ctx, "stock-alert:LOW_STOCK:p1")
	require.Error(t, err)
	assert.False(t, had)
}

func TestRedisThrottle_Prefijo(t *testing.T) {
	th := NewRedisThrottle(unreachableClient(t), time.Minute, "gestion:")
	assert.Equal(t, "gestion:stock-alert:OVERSTOCK:p9", th.key("stock-alert:OVERSTOCK:p9"))
}

func TestNewClient_FallaSinServidor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
