package memory

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
)

// LogRepo implements voucherlog.Repository in memory. Entries are only ever
// appended.
type LogRepo struct{ db *DB }

var _ voucherlog.Repository = (*LogRepo)(nil)

func (r *LogRepo) Append(_ context.Context, l *domain.VoucherLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.logs = append(r.db.logs, *l)
	return nil
}

func (r *LogRepo) Get(_ context.Context, id string) (*domain.VoucherLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, l := range r.db.logs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, voucherlog.ErrNotFound
}

func (r *LogRepo) List(_ context.Context, f voucherlog.ListFilter) ([]domain.VoucherLog, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.VoucherLog, 0)
	for _, l := range r.db.logs {
		if f.VoucherCode != "" && l.VoucherCode != f.VoucherCode {
			continue
		}
		if f.Action != "" && string(l.Action) != f.Action {
			continue
		}
		if f.Actor != "" && !contains(l.Actor, f.Actor) {
			continue
		}
		if f.From != nil && l.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !l.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, l)
	}
	sortNewest(out,
		func(l domain.VoucherLog) int64 { return l.CreatedAt.UnixNano() },
		func(l domain.VoucherLog) string { return l.ID })
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (r *LogRepo) Stats(_ context.Context, since time.Time) (*domain.LogStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s := &domain.LogStats{ByAction: make(map[domain.LogAction]int)}
	for _, l := range r.db.logs {
		s.Total++
		s.ByAction[l.Action]++
		if !l.CreatedAt.Before(since) {
			s.Last24Hours++
		}
	}
	return s, nil
}
