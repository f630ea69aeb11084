package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/voucher-console/internal/querykey"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, opts Options) (*Cache, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	opts.Now = clk.Now
	c := New(NewMemoryStore(time.Hour), opts)
	t.Cleanup(c.Close)
	return c, clk
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, func() {
		client.Close()
		mr.Close()
	}
}

var keys = querykey.For("vouchers")

func counting(n *int32, v string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		atomic.AddInt32(n, 1)
		return v, nil
	}
}

func TestFetch_ServesFreshEntriesFromCache(t *testing.T) {
	c, clk := newTestCache(t, Options{StaleTime: time.Minute})
	ctx := context.Background()
	var calls int32

	v, err := Fetch(ctx, c, keys.Detail("A"), 0, counting(&calls, "one"))
	require.NoError(t, err)
	assert.Equal(t, "one", v)

	v, err = Fetch(ctx, c, keys.Detail("A"), 0, counting(&calls, "two"))
	require.NoError(t, err)
	assert.Equal(t, "one", v)
	assert.EqualValues(t, 1, calls)

	clk.Advance(2 * time.Minute)
	v, err = Fetch(ctx, c, keys.Detail("A"), 0, counting(&calls, "three"))
	require.NoError(t, err)
	assert.Equal(t, "three", v)
	assert.EqualValues(t, 2, calls)
}

func TestFetch_DeduplicatesConcurrentLoads(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	load := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, c, keys.Stats(), 0, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestFetch_ErrorIsNotCached(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Fetch(ctx, c, keys.Detail("X"), 0, func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	_, ok, err := Get[string](ctx, c, keys.Detail("X"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetch_SupersededLoadIsDiscarded(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	done := make(chan string)
	go func() {
		v, _ := Fetch(ctx, c, keys.Detail("A"), 0, func(context.Context) (string, error) {
			close(started)
			<-release
			return "server-old", nil
		})
		done <- v
	}()

	<-started
	require.NoError(t, Put(ctx, c, keys.Detail("A"), "written"))
	close(release)
	assert.Equal(t, "server-old", <-done)

	got, ok, err := Get[string](ctx, c, keys.Detail("A"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "written", got)
}

func TestFetch_HonoursCallerCancellation(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	errc := make(chan error)
	go func() {
		_, err := Fetch(ctx, c, keys.Lists(), 0, func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
		errc <- err
	}()
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestFetch_SharedLoadSurvivesOneCallerCancelling(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	first, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	load := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		select {
		case <-release:
			return 9, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	firstErr := make(chan error)
	go func() {
		_, err := Fetch(first, c, keys.List(map[string]string{}), 0, load)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	second := make(chan result)
	go func() {
		v, err := Fetch(context.Background(), c, keys.List(map[string]string{}), 0, load)
		second <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 9, res.v)
	assert.EqualValues(t, 1, calls)
}

func TestFetch_AbandonedLoadIsCancelled(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	stopped := make(chan error, 1)

	errc := make(chan error)
	go func() {
		_, err := Fetch(ctx, c, keys.Lists(), 0, func(lctx context.Context) (int, error) {
			close(started)
			<-lctx.Done()
			stopped <- lctx.Err()
			return 0, lctx.Err()
		})
		errc <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("load kept running after its only caller left")
	}

	v, err := Fetch(context.Background(), c, keys.Lists(), 0, func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestInvalidate_MarksPrefixStale(t *testing.T) {
	c, _ := newTestCache(t, Options{StaleTime: time.Hour})
	ctx := context.Background()
	var calls int32

	_, err := Fetch(ctx, c, keys.List(map[string]string{"status": "active"}), 0, counting(&calls, "a"))
	require.NoError(t, err)
	_, err = Fetch(ctx, c, keys.Detail("A"), 0, counting(&calls, "d"))
	require.NoError(t, err)
	require.EqualValues(t, 2, calls)

	require.NoError(t, c.Invalidate(ctx, keys.Lists()))

	_, err = Fetch(ctx, c, keys.Detail("A"), 0, counting(&calls, "d2"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls, "detail must stay fresh")

	v, err := Fetch(ctx, c, keys.List(map[string]string{"status": "active"}), 0, counting(&calls, "b"))
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.EqualValues(t, 3, calls)
}

func TestInvalidate_RefetchesActiveKeys(t *testing.T) {
	c, _ := newTestCache(t, Options{StaleTime: time.Hour, RefetchOnInvalidate: true})
	ctx := context.Background()
	var calls int32

	_, err := Fetch(ctx, c, keys.Stats(), 0, func(context.Context) (int32, error) {
		return atomic.AddInt32(&calls, 1), nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, keys.All()))
	c.Wait()

	v, ok, err := Get[int32](ctx, c, keys.Stats())
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2, v)
}

func TestClear_DiscardsInFlightLoads(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = Fetch(ctx, c, keys.Detail("A"), 0, func(context.Context) (string, error) {
			close(started)
			<-release
			return "private", nil
		})
	}()
	<-started
	require.NoError(t, c.Clear(ctx))
	close(release)
	<-done

	_, ok, err := Get[string](ctx, c, keys.Detail("A"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTx_RollbackRestoresSnapshot(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	detail := keys.Detail("A").String()
	missing := keys.Detail("B").String()
	require.NoError(t, Put(ctx, c, keys.Detail("A"), "before"))

	tx, err := c.Begin(ctx, detail, missing)
	require.NoError(t, err)
	require.NoError(t, Modify(ctx, tx, keys.Detail("A"), func(s string) string { return s + "-patched" }))
	require.NoError(t, tx.Set(ctx, missing, []byte(`"new"`)))

	got, _, _ := Get[string](ctx, c, keys.Detail("A"))
	assert.Equal(t, "before-patched", got)

	require.NoError(t, tx.Rollback(ctx))
	got, _, _ = Get[string](ctx, c, keys.Detail("A"))
	assert.Equal(t, "before", got)
	_, ok, _ := c.Peek(ctx, missing)
	assert.False(t, ok)

	assert.ErrorIs(t, tx.Commit(), ErrTxDone)
}

func TestTx_CommitKeepsOptimisticState(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	require.NoError(t, Put(ctx, c, keys.Detail("A"), "before"))

	tx, err := c.Begin(ctx, keys.Detail("A").String())
	require.NoError(t, err)
	require.NoError(t, tx.Delete(ctx, keys.Detail("A").String()))
	require.NoError(t, tx.Commit())

	_, ok, _ := c.Peek(ctx, keys.Detail("A").String())
	assert.False(t, ok)
	assert.Error(t, tx.Set(ctx, keys.Detail("A").String(), []byte(`"x"`)))
	assert.Error(t, func() error {
		tx2, _ := c.Begin(ctx, "other")
		return tx2.Set(ctx, "unlisted", nil)
	}())
}

func TestRedisStore(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()
	s := NewRedisStore(client, "", time.Minute)

	list := keys.List(map[string]any{"tags": []string{"vip"}}).String()
	require.NoError(t, s.Set(ctx, list, Entry{Data: []byte(`[1]`)}))
	require.NoError(t, s.Set(ctx, keys.Detail("A").String(), Entry{Data: []byte(`"a"`)}))
	require.NoError(t, s.Set(ctx, "vouchersx/list", Entry{Data: []byte(`0`)}))

	e, ok, err := s.Get(ctx, list)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[1]`, string(e.Data))

	got, err := s.Keys(ctx, keys.Lists().String())
	require.NoError(t, err)
	assert.Equal(t, []string{list}, got)

	got, err = s.Keys(ctx, keys.All().String())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, s.Delete(ctx, list))
	_, ok, err = s.Get(ctx, list)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCache_WithRedisStore(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()
	c := New(NewRedisStore(client, "t:", time.Minute), Options{StaleTime: time.Hour})
	defer c.Close()
	var calls int32

	for i := 0; i < 3; i++ {
		v, err := Fetch(ctx, c, keys.Detail("R"), 0, counting(&calls, "r"))
		require.NoError(t, err)
		assert.Equal(t, "r", v)
	}
	assert.EqualValues(t, 1, calls)
}
