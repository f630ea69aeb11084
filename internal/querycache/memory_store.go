package querycache

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/querykey"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultGCTime is how long an unused entry survives in a store.
	DefaultGCTime   = 5 * time.Minute
	cleanupInterval = 10 * time.Minute
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-process store. Entries unused for gcTime are
// evicted; gcTime <= 0 uses DefaultGCTime.
func NewMemoryStore(gcTime time.Duration) *MemoryStore {
	if gcTime <= 0 {
		gcTime = DefaultGCTime
	}
	return &MemoryStore{cache: gocache.New(gcTime, cleanupInterval)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	v, found := m.cache.Get(key)
	if !found {
		return Entry{}, false, nil
	}
	return v.(Entry), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, e Entry) error {
	m.cache.Set(key, e, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for k := range m.cache.Items() {
		if querykey.Matches(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.cache.Flush()
	return nil
}
