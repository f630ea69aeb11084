package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ignite/voucher-console/internal/querykey"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("querycache: transaction already finished")

type snapshot struct {
	entry Entry
	had   bool
}

// Tx is an optimistic change to a set of keys. Begin snapshots the keys,
// Set and Delete apply optimistic values, and the transaction ends with
// exactly one Commit or Rollback. A Tx is not safe for concurrent use.
type Tx struct {
	c     *Cache
	keys  []string
	snaps map[string]snapshot
	done  bool
}

// Begin snapshots keys.
func (c *Cache) Begin(ctx context.Context, keys ...string) (*Tx, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	unlock := c.lockAll(keys)
	defer unlock()

	tx := &Tx{c: c, keys: keys, snaps: make(map[string]snapshot, len(keys))}
	for _, k := range keys {
		e, ok, err := c.store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", k, err)
		}
		tx.snaps[k] = snapshot{entry: e, had: ok}
	}
	return tx, nil
}

// Keys returns the keys covered by the transaction.
func (tx *Tx) Keys() []string { return tx.keys }

// Snapshot returns the pre-transaction document of key.
func (tx *Tx) Snapshot(key string) ([]byte, bool) {
	s, ok := tx.snaps[key]
	if !ok || !s.had {
		return nil, false
	}
	return s.entry.Data, true
}

// Set writes an optimistic document under key.
func (tx *Tx) Set(ctx context.Context, key string, data []byte) error {
	if err := tx.check(key); err != nil {
		return err
	}
	unlock := tx.c.lock(key)
	defer unlock()
	return tx.c.write(ctx, key, data)
}

// Delete optimistically removes key.
func (tx *Tx) Delete(ctx context.Context, key string) error {
	if err := tx.check(key); err != nil {
		return err
	}
	unlock := tx.c.lock(key)
	defer unlock()
	return tx.c.delete(ctx, key)
}

// Commit keeps the optimistic state. Callers usually follow it with a Set of
// the confirmed server value and an Invalidate of dependent keys.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	return nil
}

// Rollback restores every key to its snapshot.
func (tx *Tx) Rollback(ctx context.Context) error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true

	unlock := tx.c.lockAll(tx.keys)
	defer unlock()
	var errs []error
	for _, k := range tx.keys {
		s := tx.snaps[k]
		if err := tx.c.restore(ctx, k, s.entry, s.had); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

func (tx *Tx) check(key string) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.snaps[key]; !ok {
		return fmt.Errorf("querycache: key %s not in transaction", key)
	}
	return nil
}

// Modify decodes the snapshot of key, applies fn and writes the result
// optimistically. Keys with no snapshot are left alone.
func Modify[T any](ctx context.Context, tx *Tx, key querykey.Key, fn func(T) T) error {
	k := key.String()
	data, ok := tx.Snapshot(k)
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode %s: %w", k, err)
	}
	out, err := json.Marshal(fn(v))
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return tx.Set(ctx, k, out)
}
