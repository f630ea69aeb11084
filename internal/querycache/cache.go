package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/querykey"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultStaleTime is how long a loaded entry is served without a reload.
	DefaultStaleTime = 30 * time.Second

	// loadTimeout bounds a shared load.
	loadTimeout    = 30 * time.Second
	refetchTimeout = 30 * time.Second
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("querycache: cache closed")

// Loader fetches the JSON document for a key.
type Loader func(ctx context.Context) ([]byte, error)

// Options configures a Cache.
type Options struct {
	// StaleTime is the freshness window. Zero uses DefaultStaleTime.
	StaleTime time.Duration
	// RefetchOnInvalidate reloads invalidated keys that have a registered
	// loader in the background.
	RefetchOnInvalidate bool
	// Now overrides the clock.
	Now func() time.Time
}

// generation identifies the state of one key. Any write to the key, and any
// Clear, produces a new generation.
type generation struct {
	epoch uint64
	seq   uint64
}

// Cache serves query results from a Store.
type Cache struct {
	store Store
	opts  Options
	group singleflight.Group

	mu      sync.Mutex
	epoch   uint64
	gens    map[string]uint64
	loaders map[string]Loader
	locks   map[string]*keyLock
	flights map[string]*flight
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// flight is the context of one shared load and the number of callers still
// waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates a cache over store.
func New(store Store, opts Options) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		store:   store,
		opts:    opts,
		gens:    make(map[string]uint64),
		loaders: make(map[string]Loader),
		locks:   make(map[string]*keyLock),
		flights: make(map[string]*flight),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// StaleTime returns the configured freshness window.
func (c *Cache) StaleTime() time.Duration { return c.opts.StaleTime }

// Load returns the document under key, calling load when the cached entry is
// missing, stale or older than staleTime. staleTime <= 0 uses the cache
// default. Concurrent loads of one key share a single call.
func (c *Cache) Load(ctx context.Context, key string, staleTime time.Duration, load Loader) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	if staleTime <= 0 {
		staleTime = c.opts.StaleTime
	}
	e, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("[querycache] store read failed, loading from source", "key", key, "error", err)
		ok = false
	}
	if ok && c.fresh(e, staleTime) {
		return e.Data, nil
	}
	c.register(key, load)
	return c.load(ctx, key, load)
}

// Peek returns the cached document under key without loading.
func (c *Cache) Peek(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return e.Data, true, nil
}

// Keys lists the cached keys at or below prefix.
func (c *Cache) Keys(ctx context.Context, prefix querykey.Key) ([]string, error) {
	return c.store.Keys(ctx, prefix.String())
}

// Set writes data under key as a fresh entry.
func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	unlock := c.lock(key)
	defer unlock()
	return c.write(ctx, key, data)
}

// Remove deletes key and forgets its loader.
func (c *Cache) Remove(ctx context.Context, key string) error {
	unlock := c.lock(key)
	defer unlock()
	c.Forget(key)
	return c.delete(ctx, key)
}

// Forget unregisters the loader of key so invalidation no longer reloads it.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	delete(c.loaders, key)
	c.mu.Unlock()
}

// Invalidate marks every entry at or below prefix stale and discards any
// load of those keys that is still in flight. With RefetchOnInvalidate,
// keys with a registered loader are reloaded in the background.
func (c *Cache) Invalidate(ctx context.Context, prefix querykey.Key) error {
	p := prefix.String()
	keys, err := c.store.Keys(ctx, p)
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", p, err)
	}

	c.mu.Lock()
	for k := range c.gens {
		if querykey.Matches(k, p) {
			c.gens[k]++
		}
	}
	c.mu.Unlock()

	for _, k := range keys {
		unlock := c.lock(k)
		e, ok, err := c.store.Get(ctx, k)
		if err == nil && ok && !e.Stale {
			e.Stale = true
			c.bump(k)
			err = c.store.Set(ctx, k, e)
		}
		unlock()
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", k, err)
		}
	}

	if c.opts.RefetchOnInvalidate {
		for _, k := range keys {
			if load := c.loader(k); load != nil {
				c.refetch(k, load)
			}
		}
	}
	return nil
}

// Clear drops every entry and loader, and discards every in-flight load.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	c.gens = make(map[string]uint64)
	c.loaders = make(map[string]Loader)
	c.mu.Unlock()
	return c.store.Clear(ctx)
}

// Wait blocks until background reloads have finished.
func (c *Cache) Wait() { c.wg.Wait() }

// Close stops background reloads and waits for them to exit.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) fresh(e Entry, staleTime time.Duration) bool {
	return !e.Stale && c.opts.Now().Sub(e.UpdatedAt) < staleTime
}

// load runs one shared load per key. The loader's context does not follow
// any single caller: a caller that gives up stops waiting, and the load is
// cancelled only once every caller has given up.
func (c *Cache) load(ctx context.Context, key string, load Loader) ([]byte, error) {
	f := c.join(ctx, key)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		defer c.land(key, f)
		gen := c.generation(key)
		data, err := load(f.ctx)
		if err != nil {
			return nil, err
		}
		if err := c.install(context.WithoutCancel(f.ctx), key, gen, data); err != nil {
			logger.Warn("[querycache] store write failed", "key", key, "error", err)
		}
		return data, nil
	})
	select {
	case <-ctx.Done():
		c.leave(key, f)
		return nil, ctx.Err()
	case res := <-ch:
		c.leave(key, f)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// join registers the caller on the key's current flight, starting one if
// needed. The flight context keeps the values of ctx and is bounded by Close
// and loadTimeout.
func (c *Cache) join(ctx context.Context, key string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		stop := context.AfterFunc(c.ctx, cancel)
		f = &flight{ctx: lctx, cancel: func() {
			stop()
			cancel()
		}}
		c.flights[key] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter. When the last one leaves, the flight is cancelled and
// the next caller starts a new load instead of joining the abandoned one.
func (c *Cache) leave(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
		c.group.Forget(key)
	}
}

// land retires a flight whose load has returned.
func (c *Cache) land(key string, f *flight) {
	c.mu.Lock()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	c.mu.Unlock()
}

// install stores a loaded document unless the key was written since the load
// began.
func (c *Cache) install(ctx context.Context, key string, gen generation, data []byte) error {
	unlock := c.lock(key)
	defer unlock()
	if c.generation(key) != gen {
		logger.Debug("[querycache] discarding superseded load", "key", key)
		return nil
	}
	return c.store.Set(ctx, key, Entry{Data: data, UpdatedAt: c.opts.Now()})
}

func (c *Cache) refetch(key string, load Loader) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, refetchTimeout)
		defer cancel()
		if _, err := c.load(ctx, key, load); err != nil && c.ctx.Err() == nil {
			logger.Warn("[querycache] background refetch failed", "key", key, "error", err)
		}
	}()
}

// write and delete expect the key lock to be held.
func (c *Cache) write(ctx context.Context, key string, data []byte) error {
	c.bump(key)
	return c.store.Set(ctx, key, Entry{Data: data, UpdatedAt: c.opts.Now()})
}

func (c *Cache) delete(ctx context.Context, key string) error {
	c.bump(key)
	return c.store.Delete(ctx, key)
}

func (c *Cache) restore(ctx context.Context, key string, e Entry, had bool) error {
	c.bump(key)
	if !had {
		return c.store.Delete(ctx, key)
	}
	return c.store.Set(ctx, key, e)
}

// generation also starts tracking key so a later Invalidate can supersede a
// load that is still running.
func (c *Cache) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, ok := c.gens[key]
	if !ok {
		c.gens[key] = 0
	}
	return generation{epoch: c.epoch, seq: seq}
}

func (c *Cache) bump(key string) {
	c.mu.Lock()
	c.gens[key]++
	c.mu.Unlock()
}

func (c *Cache) register(key string, load Loader) {
	c.mu.Lock()
	c.loaders[key] = load
	c.mu.Unlock()
}

func (c *Cache) loader(key string) Loader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaders[key]
}

func (c *Cache) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// lock acquires the per-key mutex and returns its release func.
func (c *Cache) lock(key string) func() {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

// lockAll acquires several key locks in a fixed order.
func (c *Cache) lockAll(keys []string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	unlocks := make([]func(), 0, len(sorted))
	for i, k := range sorted {
		if i > 0 && sorted[i-1] == k {
			continue
		}
		unlocks = append(unlocks, c.lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// Fetch is the typed form of Load.
func Fetch[T any](ctx context.Context, c *Cache, key querykey.Key, staleTime time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	data, err := c.Load(ctx, key.String(), staleTime, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// Get is the typed form of Peek.
func Get[T any](ctx context.Context, c *Cache, key querykey.Key) (T, bool, error) {
	var out T
	data, ok, err := c.Peek(ctx, key.String())
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, true, nil
}

// Put is the typed form of Set.
func Put[T any](ctx context.Context, c *Cache, key querykey.Key, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key.String(), data)
}
