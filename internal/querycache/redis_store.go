package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/voucher-console/internal/querykey"
	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "vconsole:cache:"

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps entries in Redis so several console processes share one
// cache. Entries expire after the store's GC time.
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStore creates a Redis-backed store. An empty namespace uses
// "vconsole:cache:"; ttl <= 0 uses DefaultGCTime.
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if ttl <= 0 {
		ttl = DefaultGCTime
	}
	return &RedisStore{client: client, namespace: namespace, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, r.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode entry %s: %w", key, err)
	}
	return e, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.namespace+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.namespace+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	err := r.scan(ctx, globEscaper.Replace(r.namespace+prefix)+"*", func(full string) {
		k := strings.TrimPrefix(full, r.namespace)
		if querykey.Matches(k, prefix) {
			out = append(out, k)
		}
	})
	return out, err
}

func (r *RedisStore) Clear(ctx context.Context) error {
	var keys []string
	if err := r.scan(ctx, globEscaper.Replace(r.namespace)+"*", func(full string) { keys = append(keys, full) }); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

func (r *RedisStore) scan(ctx context.Context, match string, fn func(string)) error {
	iter := r.client.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		fn(iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", match, err)
	}
	return nil
}
