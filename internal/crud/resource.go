package crud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/notify"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/querycache"
	"github.com/ignite/voucher-console/internal/querykey"
)

var (
	// ErrDisabled is returned by a detail read with an empty id. No request
	// is made.
	ErrDisabled = errors.New("crud: query disabled")
	// ErrUnsupported is returned when the transport lacks the operation.
	ErrUnsupported = errors.New("crud: operation not supported")
)

// Transport is the set of backend calls behind a resource. Any field may be
// nil; the matching operation then fails with ErrUnsupported.
type Transport[T, F, C, U, S any] struct {
	List   func(ctx context.Context, filter F) (domain.Page[T], error)
	Get    func(ctx context.Context, id string) (T, error)
	Create func(ctx context.Context, in C) (T, error)
	Update func(ctx context.Context, id string, in U) (T, error)
	Delete func(ctx context.Context, id string) error
	Stats  func(ctx context.Context) (S, error)
}

// Config describes a resource.
type Config[T, U any] struct {
	// Name is the cache namespace, e.g. "vouchers".
	Name string
	// Label is the singular noun used in notifications, e.g. "voucher".
	Label string
	// ID extracts the identity of an entity.
	ID func(T) string
	// Patch applies an update optimistically. Nil disables the optimistic
	// patch; the server value still replaces the cached one on success.
	Patch func(T, U) T
	// StaleTime overrides the cache's freshness window.
	StaleTime time.Duration
	Notifier  notify.Notifier
}

// Resource is a cached CRUD resource.
type Resource[T, F, C, U, S any] struct {
	keys  querykey.Factory
	cache *querycache.Cache
	tr    Transport[T, F, C, U, S]
	cfg   Config[T, U]
	locks idLocks
}

// New binds a transport to a cache.
func New[T, F, C, U, S any](cache *querycache.Cache, tr Transport[T, F, C, U, S], cfg Config[T, U]) *Resource[T, F, C, U, S] {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Label == "" {
		cfg.Label = strings.TrimSuffix(cfg.Name, "s")
	}
	return &Resource[T, F, C, U, S]{
		keys:  querykey.For(cfg.Name),
		cache: cache,
		tr:    tr,
		cfg:   cfg,
	}
}

// Keys returns the resource's key factory.
func (r *Resource[T, F, C, U, S]) Keys() querykey.Factory { return r.keys }

// Cache returns the underlying cache.
func (r *Resource[T, F, C, U, S]) Cache() *querycache.Cache { return r.cache }

// Notifier returns the configured notifier.
func (r *Resource[T, F, C, U, S]) Notifier() notify.Notifier { return r.cfg.Notifier }

// List returns one page of entities matching filter.
func (r *Resource[T, F, C, U, S]) List(ctx context.Context, filter F) (domain.Page[T], error) {
	if r.tr.List == nil {
		return domain.Page[T]{}, ErrUnsupported
	}
	return querycache.Fetch(ctx, r.cache, r.keys.List(filter), r.cfg.StaleTime,
		func(ctx context.Context) (domain.Page[T], error) { return r.tr.List(ctx, filter) })
}

// Get returns one entity. An empty id disables the read.
func (r *Resource[T, F, C, U, S]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, ErrDisabled
	}
	if r.tr.Get == nil {
		return zero, ErrUnsupported
	}
	return querycache.Fetch(ctx, r.cache, r.keys.Detail(id), r.cfg.StaleTime,
		func(ctx context.Context) (T, error) { return r.tr.Get(ctx, id) })
}

// Stats returns the resource's aggregate statistics.
func (r *Resource[T, F, C, U, S]) Stats(ctx context.Context) (S, error) {
	var zero S
	if r.tr.Stats == nil {
		return zero, ErrUnsupported
	}
	return querycache.Fetch(ctx, r.cache, r.keys.Stats(), r.cfg.StaleTime, r.tr.Stats)
}

// Prefetch warms the detail entry of id.
func (r *Resource[T, F, C, U, S]) Prefetch(ctx context.Context, id string) error {
	_, err := r.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrDisabled) {
		logger.Debug("[crud] prefetch failed", "resource", r.cfg.Name, "id", id, "error", err)
	}
	return err
}

// Create sends in to the backend. On success the new entity is cached and
// every list and the stats are invalidated. Nothing is inserted into cached
// lists ahead of the response.
func (r *Resource[T, F, C, U, S]) Create(ctx context.Context, in C, opts ...Option) (T, error) {
	var zero T
	if r.tr.Create == nil {
		return zero, ErrUnsupported
	}
	o := r.options("create", opts)

	v, err := r.tr.Create(ctx, in)
	if err != nil {
		r.fail(o, err)
		return zero, err
	}
	if r.cfg.ID != nil {
		if err := querycache.Put(ctx, r.cache, r.keys.Detail(r.cfg.ID(v)), v); err != nil {
			logger.Warn("[crud] cache write failed", "resource", r.cfg.Name, "error", err)
		}
	}
	r.settle(ctx)
	r.succeed(o)
	return v, nil
}

// Update changes entity id. The cached detail and cached list pages are
// patched first and restored if the request fails. On success the server's
// value replaces the cached detail and lists and stats are invalidated.
func (r *Resource[T, F, C, U, S]) Update(ctx context.Context, id string, in U, opts ...Option) (T, error) {
	var zero T
	if r.tr.Update == nil {
		return zero, ErrUnsupported
	}
	o := r.options("update", opts)
	unlock := r.locks.lock(id)
	defer unlock()

	tx, err := r.begin(ctx, id)
	if err != nil {
		return zero, err
	}
	if r.cfg.Patch != nil {
		r.optimistic(ctx, tx, id, func(v T) T { return r.cfg.Patch(v, in) }, false)
	}

	v, err := r.tr.Update(ctx, id, in)
	if err != nil {
		r.rollback(ctx, tx)
		r.settle(ctx)
		r.fail(o, err)
		return zero, err
	}
	_ = tx.Commit()
	if err := querycache.Put(ctx, r.cache, r.keys.Detail(id), v); err != nil {
		logger.Warn("[crud] cache write failed", "resource", r.cfg.Name, "id", id, "error", err)
	}
	r.settle(ctx)
	r.succeed(o)
	return v, nil
}

// Delete removes entity id. The cached detail is dropped and the entity is
// filtered out of cached list pages first, and both are restored if the
// request fails.
func (r *Resource[T, F, C, U, S]) Delete(ctx context.Context, id string, opts ...Option) error {
	if r.tr.Delete == nil {
		return ErrUnsupported
	}
	o := r.options("delete", opts)
	unlock := r.locks.lock(id)
	defer unlock()

	tx, err := r.begin(ctx, id)
	if err != nil {
		return err
	}
	if err := tx.Delete(ctx, r.keys.Detail(id).String()); err != nil {
		logger.Warn("[crud] optimistic delete failed", "resource", r.cfg.Name, "id", id, "error", err)
	}
	r.optimistic(ctx, tx, id, nil, true)

	if err := r.tr.Delete(ctx, id); err != nil {
		r.rollback(ctx, tx)
		r.settle(ctx)
		r.fail(o, err)
		return err
	}
	_ = tx.Commit()
	r.cache.Forget(r.keys.Detail(id).String())
	r.settle(ctx)
	r.succeed(o)
	return nil
}

// InvalidateAll marks every cached entry of the resource stale.
func (r *Resource[T, F, C, U, S]) InvalidateAll(ctx context.Context) error {
	return r.cache.Invalidate(ctx, r.keys.All())
}

// Invalidate marks the given keys stale and logs failures.
func (r *Resource[T, F, C, U, S]) Invalidate(ctx context.Context, keys ...querykey.Key) {
	for _, k := range keys {
		if err := r.cache.Invalidate(ctx, k); err != nil {
			logger.Warn("[crud] invalidate failed", "key", k.String(), "error", err)
		}
	}
}

// begin snapshots the detail of id and every cached list page.
func (r *Resource[T, F, C, U, S]) begin(ctx context.Context, id string) (*querycache.Tx, error) {
	lists, err := r.cache.Keys(ctx, r.keys.Lists())
	if err != nil {
		return nil, fmt.Errorf("snapshot %s lists: %w", r.cfg.Name, err)
	}
	keys := append([]string{r.keys.Detail(id).String()}, lists...)
	return r.cache.Begin(ctx, keys...)
}

// optimistic rewrites the detail and the list pages covered by tx. With drop
// set the entity leaves its list pages and the detail is left to the caller.
func (r *Resource[T, F, C, U, S]) optimistic(ctx context.Context, tx *querycache.Tx, id string, patch func(T) T, drop bool) {
	detail := r.keys.Detail(id)
	for _, k := range tx.Keys() {
		var err error
		switch {
		case k == detail.String():
			if !drop {
				err = querycache.Modify(ctx, tx, detail, patch)
			}
		case r.cfg.ID != nil:
			err = querycache.Modify(ctx, tx, querykey.Parse(k), func(p domain.Page[T]) domain.Page[T] {
				return r.rewritePage(p, id, patch, drop)
			})
		}
		if err != nil {
			logger.Warn("[crud] optimistic write failed", "resource", r.cfg.Name, "key", k, "error", err)
		}
	}
}

func (r *Resource[T, F, C, U, S]) rewritePage(p domain.Page[T], id string, patch func(T) T, drop bool) domain.Page[T] {
	out := make([]T, 0, len(p.Data))
	for _, v := range p.Data {
		switch {
		case r.cfg.ID(v) != id:
			out = append(out, v)
		case drop:
			if p.Pagination.Total > 0 {
				p.Pagination.Total--
			}
		default:
			out = append(out, patch(v))
		}
	}
	p.Data = out
	return p
}

func (r *Resource[T, F, C, U, S]) rollback(ctx context.Context, tx *querycache.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		logger.Error("[crud] rollback failed", "resource", r.cfg.Name, "error", err)
	}
}

// settle invalidates every list and the stats.
func (r *Resource[T, F, C, U, S]) settle(ctx context.Context) {
	r.Invalidate(ctx, r.keys.Lists(), r.keys.Stats())
}
