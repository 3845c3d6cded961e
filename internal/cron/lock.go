package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/pkg/instance"
)

// Lock keeps two cron workers from reconciling inventory at the same time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// holderReporter is implemented by locks that can name the current owner.
type holderReporter interface {
	Holder(ctx context.Context) (string, error)
}

type lockBackend interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. The stored token is "<instance>/<uuid>" so a
// held lock can be traced back to the worker that took it.
type RedisLock struct {
	backend lockBackend
	key     string
	lease   time.Duration
	token   string
	prefix  string
}

func NewRedisLock(backend lockBackend, key string, lease time.Duration) (*RedisLock, error) {
	switch {
	case backend == nil:
		return nil, errors.New("cron lock: redis backend required")
	case strings.TrimSpace(key) == "":
		return nil, errors.New("cron lock: key required")
	}
	if lease <= 0 {
		lease = 10 * time.Minute
	}
	return &RedisLock{
		backend: backend,
		key:     key,
		lease:   lease,
		prefix:  instance.GetID(),
	}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := l.prefix + "/" + uuid.NewString()
	won, err := l.backend.SetNX(ctx, l.key, token, l.lease)
	if err != nil {
		return false, fmt.Errorf("cron lock %s: %w", l.key, err)
	}
	if won {
		l.token = token
	}
	return won, nil
}

// Holder reports the instance owning the lease, or "" when it is free.
func (l *RedisLock) Holder(ctx context.Context) (string, error) {
	token, err := l.backend.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cron lock %s: %w", l.key, err)
	}
	holder, _, _ := strings.Cut(token, "/")
	return holder, nil
}

// Release deletes the key only while it still carries this worker's token;
// a lease that expired and was retaken elsewhere is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""

	current, err := l.backend.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("cron lock %s: %w", l.key, err)
	case current != token:
		return nil
	}
	if err := l.backend.Del(ctx, l.key); err != nil {
		return fmt.Errorf("cron lock %s: %w", l.key, err)
	}
	return nil
}
