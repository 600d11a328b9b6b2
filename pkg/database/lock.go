package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLocker is a cross-process mutex keyed by name, built on Postgres
// session advisory locks. Each held lock pins one pooled connection; Postgres
// drops the lock by itself if that connection dies.
// ⭐ SSOT: run locks without Redis live here
type AdvisoryLocker struct {
	pool      *pgxpool.Pool
	prefix    string
	pollEvery time.Duration
}

// NewAdvisoryLocker creates an AdvisoryLocker on the pool of db
func NewAdvisoryLocker(db *DB, prefix string) (*AdvisoryLocker, error) {
	if db == nil || db.Pool == nil {
		return nil, fmt.Errorf("advisory locker needs a database pool")
	}

	return &AdvisoryLocker{
		pool:      db.Pool,
		prefix:    prefix,
		pollEvery: 100 * time.Millisecond,
	}, nil
}

// Lock blocks until the named lock is held or ctx is done.
// The returned function releases it; calling it more than once is safe.
func (l *AdvisoryLocker) Lock(ctx context.Context, name string) (func(), error) {
	key := fmt.Sprintf("%s:lock:%s", l.prefix, name)

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock %s not acquired: %w", name, err)
	}

	for {
		var ok bool
		err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, key).Scan(&ok)
		if err != nil {
			conn.Release()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("lock %s not acquired: %w", name, ctx.Err())
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			conn.Release()
			return nil, fmt.Errorf("lock %s not acquired: %w", name, ctx.Err())
		case <-time.After(l.pollEvery):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must not depend on the caller's (possibly cancelled) context
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			var unlocked bool
			err := conn.QueryRow(releaseCtx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key).Scan(&unlocked)
			if err != nil || !unlocked {
				// closing the session is the only other way to drop a session lock
				_ = conn.Conn().Close(releaseCtx)
			}
			conn.Release()
		})
	}, nil
}
