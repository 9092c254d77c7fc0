package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
)

var _ inventory.AlertThrottle = (*RedisThrottle)(nil)

// RedisThrottle ventana de espera de alertas compartida entre instancias.
type RedisThrottle struct {
	client   redis.UniversalClient
	cooldown time.Duration
	prefix   string
}

// NewRedisThrottle construye el limitador. prefix separa las claves de otras apps en el mismo Redis.
func NewRedisThrottle(client redis.UniversalClient, cooldown time.Duration, prefix string) *RedisThrottle {
	return &RedisThrottle{client: client, cooldown: cooldown, prefix: prefix}
}

func (t *RedisThrottle) key(k string) string {
	return t.prefix + k
}

// Allow SET NX EX: solo el primero dentro de la ventana obtiene true.
func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(key), time.Now().UTC().Format(time.RFC3339), t.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Reset DEL; true si la clave existía.
func (t *RedisThrottle) Reset(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Del(ctx, t.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %s: %w", key, err)
	}
	return n > 0, nil
}

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
