package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/distlock"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/ignite/voucher-console/internal/service/campaign"
	"github.com/ignite/voucher-console/internal/service/voucher"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls int32
	n     int
	err   error
}

func (c *countingExpirer) ExpireDue(context.Context) (int, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.n, c.err
}

func (c *countingExpirer) ExpireEnded(context.Context) (int, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.n, c.err
}

func TestRunOnce_ExpiresSeededData(t *testing.T) {
	db := memory.New()
	require.NoError(t, memory.Seed(db, time.Now()))

	later := time.Now().AddDate(5, 0, 0)
	clock := func() time.Time { return later }

	logs := voucherlog.NewService(db.Logs(), nil)
	vouchers := voucher.NewService(db.Vouchers(), db.Campaigns(), logs, nil)
	vouchers.SetClock(clock)
	campaigns := campaign.NewService(db.Campaigns())
	campaigns.SetClock(clock)

	s := NewExpirySweeper(vouchers, campaigns, nil, "@every 1m")
	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Greater(t, res.Vouchers, 0)
	assert.Greater(t, res.Campaigns, 0)

	st, err := vouchers.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, st.Active)
	assert.Zero(t, st.Scheduled)

	again, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Vouchers)

	expired, _, err := logs.List(context.Background(), voucherlog.ListFilter{Action: string(domain.ActionExpired), Limit: 100})
	require.NoError(t, err)
	assert.Len(t, expired, res.Vouchers)
}

func TestRunOnce_SkipsWhenLocked(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	holder := distlock.NewRedisLock(client, SweepLockKey, time.Minute)
	ok, err := holder.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	v := &countingExpirer{}
	s := NewExpirySweeper(v, nil, func() distlock.Lock {
		return distlock.NewRedisLock(client, SweepLockKey, time.Minute)
	}, "@every 1m")

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, atomic.LoadInt32(&v.calls))

	require.NoError(t, holder.Release(context.Background()))
	res, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.EqualValues(t, 1, atomic.LoadInt32(&v.calls))
}

func TestRunOnce_Error(t *testing.T) {
	v := &countingExpirer{err: errors.New("db down")}
	s := NewExpirySweeper(v, nil, nil, "@every 1m")
	_, err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")

	// the lock was released despite the failure
	_, err = s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.EqualValues(t, 2, atomic.LoadInt32(&v.calls))
}

func TestStartStop(t *testing.T) {
	v := &countingExpirer{}
	s := NewExpirySweeper(v, nil, nil, "@every 1h")
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&v.calls) >= 1 }, time.Second, 10*time.Millisecond)
	s.Stop()
	s.Stop()

	bad := NewExpirySweeper(v, nil, nil, "not a schedule")
	assert.Error(t, bad.Start())
}
