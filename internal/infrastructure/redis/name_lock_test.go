package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestKey_NormalizaNombre(t *testing.T) {
	assert.Equal(t, "lock:alloc:tornillo", Key("  Tornillo "))
	assert.Equal(t, Key("TORNILLO"), Key("tornillo"))
}

func TestNameLocker_ExclusionYLiberacion(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	ctx := context.Background()
	client.Del(ctx, Key("test-lock"))

	l := NewNameLocker(client, 5*time.Second, 50*time.Millisecond, nil)
	unlock, err := l.Lock(ctx, "test-lock")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "TEST-LOCK")
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))

	unlock()
	unlock2, err := l.Lock(ctx, "test-lock")
	require.NoError(t, err)
	unlock2()

	n, err := client.Exists(ctx, Key("test-lock")).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNameLocker_NoLiberaClaveAjena(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	ctx := context.Background()
	key := Key("test-foreign")
	client.Del(ctx, key)

	l := NewNameLocker(client, 5*time.Second, 50*time.Millisecond, nil)
	unlock, err := l.Lock(ctx, "test-foreign")
	require.NoError(t, err)

	// simula TTL vencido y otro dueño
	client.Set(ctx, key, "otro", time.Minute)
	unlock()

	v, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "otro", v)
	client.Del(ctx, key)
}
