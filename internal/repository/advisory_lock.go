package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RebuildLockKey is the advisory lock key held while the search index is rebuilt.
const RebuildLockKey int64 = 0x696e_7472_6964_7800

// AdvisoryLock is a Postgres session-level advisory lock. The lock lives on a
// dedicated pool connection until released.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	key  int64
}

func NewAdvisoryLock(pool *pgxpool.Pool, key int64) *AdvisoryLock {
	return &AdvisoryLock{pool: pool, key: key}
}

func (l *AdvisoryLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
			// Unlock failed; drop the session so Postgres frees the lock.
			_ = conn.Conn().Close(context.Background())
		}
		conn.Release()
	}
	return release, true, nil
}
