package crud

import (
	"context"
	"sync"

	"github.com/ignite/voucher-console/internal/domain"
)

// ListView reads a resource list for a filter that changes over time.
// Setting a new filter cancels the load of the previous one; Close cancels
// whatever is in flight and stops background reloads of the current list.
type ListView[T, F any] struct {
	list   func(context.Context, F) (domain.Page[T], error)
	key    func(F) string
	forget func(string)
	stale  func(context.Context, F) error

	mu     sync.Mutex
	filter F
	set    bool
	cancel context.CancelFunc
	closed bool
}

// View opens a ListView over the resource.
func (r *Resource[T, F, C, U, S]) View() *ListView[T, F] {
	return &ListView[T, F]{
		list:   r.List,
		key:    func(f F) string { return r.keys.List(f).String() },
		forget: r.cache.Forget,
		stale: func(ctx context.Context, f F) error {
			return r.cache.Invalidate(ctx, r.keys.List(f))
		},
	}
}

// SetFilter switches the view to f and loads its page.
func (v *ListView[T, F]) SetFilter(ctx context.Context, f F) (domain.Page[T], error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return domain.Page[T]{}, context.Canceled
	}
	if v.cancel != nil {
		v.cancel()
	}
	if v.set && v.key(v.filter) != v.key(f) {
		v.forget(v.key(v.filter))
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.filter, v.set = f, true
	v.mu.Unlock()

	return v.list(ctx, f)
}

// Refresh reloads the current filter, bypassing the freshness window.
func (v *ListView[T, F]) Refresh(ctx context.Context) (domain.Page[T], error) {
	f := v.Filter()
	if err := v.stale(ctx, f); err != nil {
		return domain.Page[T]{}, err
	}
	return v.SetFilter(ctx, f)
}

// Filter returns the current filter.
func (v *ListView[T, F]) Filter() F {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Close cancels the in-flight load.
func (v *ListView[T, F]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
	}
	if v.set {
		v.forget(v.key(v.filter))
	}
}
