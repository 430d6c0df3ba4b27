package redlock

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a single-key Redis lock. The value identifies the holder so
// only the goroutine that acquired the lock can unlock it.
type Locker struct {
	client redis.UniversalClient
	key    string
	value  string
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{
		client: client,
		key:    key,
		value:  value,
	}
}

func (l *Locker) Lock(ctx context.Context, timeout time.Duration) error {
	success, err := l.client.SetNX(ctx, l.key, l.value, timeout).Result()
	if err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("lock for key %s is already held", l.key)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	script := "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

func (l *Locker) WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error {
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		err := l.Lock(ctx, lockTimeout)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(rand.Intn(100)) * time.Millisecond):
		}
	}
	return fmt.Errorf("failed to acquire lock for key %s within the wait timeout", l.key)
}

// MultiLocker holds locks on several keys at once. Keys are always
// acquired in sorted order so two holders contending for overlapping key
// sets cannot deadlock.
type MultiLocker struct {
	lockers []*Locker
}

func NewMultiLocker(client redis.UniversalClient, keys []string, value string) *MultiLocker {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	m := &MultiLocker{}
	for _, k := range sorted {
		m.lockers = append(m.lockers, NewLocker(client, k, value))
	}
	return m
}

func (m *MultiLocker) WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error {
	for i, l := range m.lockers {
		if err := l.WaitLock(ctx, lockTimeout, waitTimeout); err != nil {
			// Release whatever was acquired before the failure.
			for j := i - 1; j >= 0; j-- {
				_ = m.lockers[j].Unlock(ctx)
			}
			return err
		}
	}
	return nil
}

func (m *MultiLocker) Unlock(ctx context.Context) error {
	var firstErr error
	for i := len(m.lockers) - 1; i >= 0; i-- {
		if err := m.lockers[i].Unlock(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
