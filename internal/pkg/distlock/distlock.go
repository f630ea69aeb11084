// Package distlock provides a single-holder lock across worker processes,
// backed by Redis when available and PostgreSQL advisory locks otherwise.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is held by at most one process at a time.
// A Lock value is not safe for concurrent use; give each goroutine its own.
type Lock interface {
	// Acquire tries to take the lock without blocking. Returns true on success.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this holder still owns it.
	Release(ctx context.Context) error
}

// New picks a backend: Redis when client is non-nil, else a Postgres
// advisory lock when db is non-nil, else a process-local lock.
func New(client redis.UniversalClient, db *sql.DB, key string, ttl time.Duration) Lock {
	switch {
	case client != nil:
		return NewRedisLock(client, key, ttl)
	case db != nil:
		return NewPGAdvisoryLock(db, key)
	default:
		return NewLocalLock(key)
	}
}

// PGAdvisoryLock uses pg_try_advisory_lock. The lock is session-scoped, so
// it is released if the connection drops.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
}

// NewPGAdvisoryLock derives a stable lock ID from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

// Acquire pins a connection so the unlock runs on the session that locked.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}

var (
	localMu   sync.Mutex
	localHeld = map[string]bool{}
)

// LocalLock serializes holders inside one process, for single-node setups
// running on mock data.
type LocalLock struct {
	key  string
	held bool
}

func NewLocalLock(key string) *LocalLock { return &LocalLock{key: key} }

func (l *LocalLock) Acquire(context.Context) (bool, error) {
	localMu.Lock()
	defer localMu.Unlock()
	if localHeld[l.key] {
		return false, nil
	}
	localHeld[l.key] = true
	l.held = true
	return true, nil
}

func (l *LocalLock) Release(context.Context) error {
	localMu.Lock()
	defer localMu.Unlock()
	if l.held {
		delete(localHeld, l.key)
		l.held = false
	}
	return nil
}
