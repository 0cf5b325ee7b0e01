package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerialisesSameKey(t *testing.T) {
	locker := NewLocal(time.Second)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "retailer-1:2025-01-02:AM")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside)
	assert.Zero(t, locker.size(), "entries are dropped once unused")
}

func TestLocalDistinctKeysDoNotBlock(t *testing.T) {
	locker := NewLocal(50 * time.Millisecond)
	unlockA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(context.Background(), "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalTimesOut(t *testing.T) {
	locker := NewLocal(20 * time.Millisecond)
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	unlock()
	assert.Zero(t, locker.size())
}

func TestLocalHonoursContext(t *testing.T) {
	locker := NewLocal(0)
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNopNeverBlocks(t *testing.T) {
	unlock, err := Nop{}.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}

func TestRedisAcquireAndRelease(t *testing.T) {
	store := newFakeRedis()
	locker, err := NewRedis(store, time.Minute, 30*time.Millisecond)
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "order-key")
	require.NoError(t, err)
	assert.Contains(t, store.data, "lock:order-key")

	_, err = locker.Lock(context.Background(), "order-key")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	assert.NotContains(t, store.data, "lock:order-key")

	unlock2, err := locker.Lock(context.Background(), "order-key")
	require.NoError(t, err)
	unlock2()
}

func TestRedisReleaseSkipsForeignOwner(t *testing.T) {
	store := newFakeRedis()
	locker, err := NewRedis(store, time.Minute, 0)
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	// simulate TTL expiry followed by another holder
	store.mu.Lock()
	store.data["lock:k"] = "someone-else"
	store.mu.Unlock()

	unlock()
	assert.Equal(t, "someone-else", store.data["lock:k"])
}

func TestRedisPropagatesStoreErrors(t *testing.T) {
	store := newFakeRedis()
	store.setErr = errors.New("connection refused")
	locker, err := NewRedis(store, time.Minute, 0)
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
}

func TestNewRedisRequiresClient(t *testing.T) {
	_, err := NewRedis(nil, time.Second, time.Second)
	require.Error(t, err)
}

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) LockKey(parts ...string) string {
	key := "lock"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
