package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned when a lock is requested from a disabled client
var ErrDisabled = errors.New("redis is disabled")

// releaseScript deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Locker is a cross-process mutex keyed by name (SET NX PX + token release)
// ⭐ SSOT: distributed run locks live here
type Locker struct {
	client    *Client
	prefix    string
	ttl       time.Duration
	pollEvery time.Duration
}

// NewLocker creates a Locker. ttl bounds how long a crashed holder can block others.
func NewLocker(client *Client, prefix string, ttl time.Duration) (*Locker, error) {
	if client == nil || !client.Enabled() {
		return nil, ErrDisabled
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive, got %s", ttl)
	}

	return &Locker{
		client:    client,
		prefix:    prefix,
		ttl:       ttl,
		pollEvery: 100 * time.Millisecond,
	}, nil
}

// Lock blocks until the named lock is held or ctx is done.
// The returned function releases it; calling it more than once is safe.
func (l *Locker) Lock(ctx context.Context, name string) (func(), error) {
	key := fmt.Sprintf("%s:lock:%s", l.prefix, name)
	token := uuid.NewString()

	for {
		ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s not acquired: %w", name, ctx.Err())
		case <-time.After(l.pollEvery):
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		// Release must not depend on the caller's (possibly cancelled) context
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client.rdb, []string{key}, token).Err()
	}, nil
}
