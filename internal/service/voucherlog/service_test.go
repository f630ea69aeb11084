package voucherlog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	got  []domain.VoucherLog
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, l domain.VoucherLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.got = append(p.got, l)
	return nil
}

func TestRecord(t *testing.T) {
	pub := &recordingPublisher{}
	svc := voucherlog.NewService(memory.New().Logs(), pub)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	l, err := svc.Record(context.Background(), "ABC", domain.ActionScanned,
		domain.Actor{Channel: "pos", IPAddress: "10.0.0.9"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "system", l.Actor)
	assert.Equal(t, now, l.CreatedAt)
	require.Len(t, pub.got, 1)
	assert.Equal(t, l.ID, pub.got[0].ID)

	got, err := svc.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", got.IPAddress)
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	svc := voucherlog.NewService(memory.New().Logs(), nil)
	_, err := svc.Record(context.Background(), "ABC", "deleted", domain.Actor{}, "")
	assert.ErrorIs(t, err, voucherlog.ErrInvalidAction)
}

func TestPublishFailureDoesNotFailRecord(t *testing.T) {
	svc := voucherlog.NewService(memory.New().Logs(), &recordingPublisher{fail: true})
	_, err := svc.Record(context.Background(), "ABC", domain.ActionCreated, domain.Actor{Name: "admin"}, "")
	assert.NoError(t, err)
}

func TestListAndStats(t *testing.T) {
	svc := voucherlog.NewService(memory.New().Logs(), nil)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	svc.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })
	_, err := svc.Record(ctx, "OLD", domain.ActionCreated, domain.Actor{}, "")
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return now })
	_, err = svc.Record(ctx, "NEW", domain.ActionCreated, domain.Actor{}, "")
	require.NoError(t, err)
	_, err = svc.Record(ctx, "NEW", domain.ActionRedeem, domain.Actor{}, "")
	require.NoError(t, err)

	logs, total, err := svc.List(ctx, voucherlog.ListFilter{VoucherCode: " new "})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, logs, 2)

	_, _, err = svc.List(ctx, voucherlog.ListFilter{Action: "bogus"})
	assert.ErrorIs(t, err, voucherlog.ErrInvalidAction)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Last24Hours)
	assert.Equal(t, 2, st.ByAction[domain.ActionCreated])
}
