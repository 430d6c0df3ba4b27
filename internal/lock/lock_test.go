package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestLockerLockUnlock(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	holder := NewLocker(client, "lock:acct", "holder-1")
	require.NoError(t, holder.Lock(ctx, time.Minute))

	// A second holder cannot take the key while it is held.
	contender := NewLocker(client, "lock:acct", "holder-2")
	assert.Error(t, contender.Lock(ctx, time.Minute))

	// Only the holder's value can release the lock.
	assert.Error(t, contender.Unlock(ctx))
	require.NoError(t, holder.Unlock(ctx))

	require.NoError(t, contender.Lock(ctx, time.Minute))
	require.NoError(t, contender.Unlock(ctx))
}

func TestLockerWaitLock(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	holder := NewLocker(client, "lock:acct", "holder-1")
	require.NoError(t, holder.Lock(ctx, time.Minute))

	// Waiting gives up once the wait timeout passes.
	contender := NewLocker(client, "lock:acct", "holder-2")
	assert.Error(t, contender.WaitLock(ctx, time.Minute, 150*time.Millisecond))

	// Released mid-wait, the contender picks it up.
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = holder.Unlock(context.Background())
	}()
	require.NoError(t, contender.WaitLock(ctx, time.Minute, 2*time.Second))
}

func TestMultiLockerAcquiresInSortedOrder(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	// Key order in the input does not matter; both keys end up held.
	m := NewMultiLocker(client, []string{"lock:b", "lock:a"}, "holder-1")
	require.NoError(t, m.WaitLock(ctx, time.Minute, time.Second))
	assert.Equal(t, "holder-1", client.Get(ctx, "lock:a").Val())
	assert.Equal(t, "holder-1", client.Get(ctx, "lock:b").Val())

	require.NoError(t, m.Unlock(ctx))
	assert.Equal(t, int64(0), client.Exists(ctx, "lock:a", "lock:b").Val())
}

func TestMultiLockerReleasesOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first := NewMultiLocker(client, []string{"lock:b", "lock:c"}, "holder-1")
	require.NoError(t, first.WaitLock(ctx, time.Minute, time.Second))

	// Sorted order acquires lock:a before hitting the held lock:b; the
	// failed acquisition must not leave lock:a behind.
	second := NewMultiLocker(client, []string{"lock:b", "lock:a"}, "holder-2")
	assert.Error(t, second.WaitLock(ctx, time.Minute, 150*time.Millisecond))
	assert.Equal(t, int64(0), client.Exists(ctx, "lock:a").Val())

	require.NoError(t, first.Unlock(ctx))
}

// Two holders contending for overlapping key sets named in opposite
// orders must both get through; sorted acquisition removes the deadlock.
func TestMultiLockerNoDeadlockOnOverlap(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	done := make(chan error, 2)
	for w, keys := range [][]string{
		{"lock:x", "lock:y"},
		{"lock:y", "lock:x"},
	} {
		value := []string{"holder-1", "holder-2"}[w]
		go func(keys []string, value string) {
			for i := 0; i < 20; i++ {
				m := NewMultiLocker(client, keys, value)
				if err := m.WaitLock(ctx, time.Minute, 5*time.Second); err != nil {
					done <- err
					return
				}
				if err := m.Unlock(ctx); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(keys, value)
	}

	for i := 0; i < 2; i++ {
		assert.NoError(t, <-done)
	}
}
