package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisAdapter) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisAdapter(client, time.Minute)
}

func TestAcquire_Success(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	ok, err := adapter.Acquire(ctx, "checkout:cust-1:k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("idempotency:checkout:cust-1:k1"))
	assert.Equal(t, time.Minute, mr.TTL("idempotency:checkout:cust-1:k1"))

	ok, err = adapter.Acquire(ctx, "checkout:cust-1:k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcquire_Expires(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	ok, err := adapter.Acquire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = adapter.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease(t *testing.T) {
	_, adapter := newTestRedis(t)
	ctx := context.Background()

	_, err := adapter.Acquire(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, adapter.Release(ctx, "k"))

	ok, err := adapter.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	// releasing an absent key is fine
	require.NoError(t, adapter.Release(ctx, "other"))
}

func TestAcquire_Concurrent(t *testing.T) {
	_, adapter := newTestRedis(t)
	ctx := context.Background()

	var successCount atomic.Int32
	var wg sync.WaitGroup
	concurrency := 100

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.Acquire(ctx, "concurrent-idem-key")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	// Only one should succeed
	assert.Equal(t, int32(1), successCount.Load())
}

func TestAcquire_Unavailable(t *testing.T) {
	mr, adapter := newTestRedis(t)
	mr.Close()

	_, err := adapter.Acquire(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, adapter.Ping(context.Background()))
}

func TestNewRedisAdapter_DefaultTTL(t *testing.T) {
	adapter := NewRedisAdapter(redis.NewClient(&redis.Options{Addr: "localhost:0"}), 0)
	assert.Equal(t, defaultIdempotencyTTL, adapter.ttl)
}
