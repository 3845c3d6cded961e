package cron

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type leaseStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newLeaseStore() *leaseStore { return &leaseStore{values: map[string]string{}} }

func (s *leaseStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.values[key]; taken {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *leaseStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (s *leaseStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockSingleHolder(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "cron-a")
	ctx := context.Background()
	store := newLeaseStore()

	a, err := NewRedisLock(store, "sf:lock:cron-worker", time.Minute)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "sf:lock:cron-worker", time.Minute)
	require.NoError(t, err)

	won, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, won)

	won, err = b.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, won)

	holder, err := b.Holder(ctx)
	require.NoError(t, err)
	require.Equal(t, "cron-a", holder)

	// b never held the lease, so its release is a no-op
	require.NoError(t, b.Release(ctx))
	require.Contains(t, store.values, "sf:lock:cron-worker")

	require.NoError(t, a.Release(ctx))
	holder, err = a.Holder(ctx)
	require.NoError(t, err)
	require.Empty(t, holder)

	won, err = b.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, won)
}

func TestRedisLockLeavesRetakenLeaseAlone(t *testing.T) {
	ctx := context.Background()
	store := newLeaseStore()
	lock, err := NewRedisLock(store, "sf:lock:cron-worker", time.Minute)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx)
	require.NoError(t, err)
	// simulate expiry followed by another worker taking the lease
	store.values["sf:lock:cron-worker"] = "cron-b/other"

	require.NoError(t, lock.Release(ctx))
	require.True(t, strings.HasPrefix(store.values["sf:lock:cron-worker"], "cron-b/"))
}

func TestNewRedisLockRequiresBackendAndKey(t *testing.T) {
	_, err := NewRedisLock(nil, "sf:lock:cron-worker", time.Minute)
	require.Error(t, err)
	_, err = NewRedisLock(newLeaseStore(), " ", time.Minute)
	require.Error(t, err)

	lock, err := NewRedisLock(newLeaseStore(), "k", 0)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, lock.lease)
}
