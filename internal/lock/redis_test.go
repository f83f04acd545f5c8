package lock

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-seeder/internal/logger"
)

// setupTestRedis creates a Redis client backed by miniredis.
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewRedis(client, time.Minute, logger.New(&bytes.Buffer{})), mr
}

func TestLockAndUnlock(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.Lock(ctx, "seeds", "owner-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Lock(ctx, "seeds", "owner-2")
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not take a held lock")

	require.NoError(t, r.Unlock(ctx, "seeds", "owner-1"))

	assert.False(t, mr.Exists("seed_lock:seeds"))
}

func TestUnlockOnlyReleasesOwnLock(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.Lock(ctx, "seeds", "owner-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, r.Unlock(ctx, "seeds", "owner-2"))

	val, err := mr.Get("seed_lock:seeds")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", val)
}

func TestLockExpires(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.Lock(ctx, "seeds", "owner-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = r.Lock(ctx, "seeds", "owner-2")
	require.NoError(t, err)
	assert.True(t, ok, "expired lock can be taken again")
}

func TestAcquireReturnsErrLocked(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	release, err := r.Acquire(ctx, "seeds")
	require.NoError(t, err)

	_, err = r.Acquire(ctx, "seeds")
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, release(ctx))

	release, err = r.Acquire(ctx, "seeds")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestAcquireConcurrent(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Acquire(ctx, "seeds"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one caller holds the lock")
}

func TestAcquireRedisDown(t *testing.T) {
	r, mr := setupTestRedis(t)
	mr.Close()

	_, err := r.Acquire(context.Background(), "seeds")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocked)
}
