package querycache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one cached document.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
	Stale     bool            `json:"stale"`
}

// Store persists entries. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry under key. ok is false when absent.
	Get(ctx context.Context, key string) (e Entry, ok bool, err error)
	Set(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
	// Keys returns every key equal to or below prefix (see querykey.Matches).
	Keys(ctx context.Context, prefix string) ([]string, error)
	Clear(ctx context.Context) error
}
