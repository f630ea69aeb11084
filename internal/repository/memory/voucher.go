package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/voucher"
)

// VoucherRepo implements voucher.Repository in memory.
type VoucherRepo struct{ db *DB }

var _ voucher.Repository = (*VoucherRepo)(nil)

func (r *VoucherRepo) Get(_ context.Context, code string) (*domain.Voucher, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	v, ok := r.db.vouchers[code]
	if !ok {
		return nil, voucher.ErrNotFound
	}
	return &v, nil
}

func (r *VoucherRepo) List(_ context.Context, f voucher.ListFilter) ([]domain.Voucher, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.Voucher, 0)
	for _, v := range r.db.vouchers {
		if f.Status != "" && string(v.Status) != f.Status {
			continue
		}
		if f.CampaignID != "" && v.CampaignID != f.CampaignID {
			continue
		}
		if f.CustomerID != "" && (v.CustomerID == nil || *v.CustomerID != f.CustomerID) {
			continue
		}
		if f.Search != "" && !contains(v.Code, f.Search) {
			continue
		}
		out = append(out, v)
	}
	sortNewest(out,
		func(v domain.Voucher) int64 { return v.CreatedAt.UnixNano() },
		func(v domain.Voucher) string { return v.Code })
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (r *VoucherRepo) Create(_ context.Context, v *domain.Voucher) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, dup := r.db.vouchers[v.Code]; dup {
		return voucher.ErrDuplicate
	}
	r.db.vouchers[v.Code] = *v
	return nil
}

func (r *VoucherRepo) CreateBatch(_ context.Context, vs []domain.Voucher) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := make(map[string]bool, len(vs))
	for _, v := range vs {
		if _, dup := r.db.vouchers[v.Code]; dup || seen[v.Code] {
			return 0, voucher.ErrDuplicate
		}
		seen[v.Code] = true
	}
	for _, v := range vs {
		r.db.vouchers[v.Code] = v
	}
	return len(vs), nil
}

func (r *VoucherRepo) Update(_ context.Context, code string, u voucher.UpdateFields) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v, ok := r.db.vouchers[code]
	if !ok {
		return voucher.ErrNotFound
	}
	if u.FromStatus != nil && v.Status != *u.FromStatus {
		return voucher.ErrStatusChanged
	}
	v = domain.VoucherPatch{Status: u.Status, CustomerID: u.CustomerID, ExpiresAt: u.ExpiresAt, Value: u.Value}.Apply(v)
	if u.UsedAt != nil {
		t := *u.UsedAt
		v.UsedAt = &t
	}
	if u.OrderID != nil {
		o := *u.OrderID
		v.OrderID = &o
	}
	if u.QRImageURL != nil {
		v.QRImageURL = *u.QRImageURL
	}
	v.UpdatedAt = time.Now().UTC()
	r.db.vouchers[code] = v
	return nil
}

func (r *VoucherRepo) Stats(_ context.Context, campaignID string) (*domain.VoucherStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s := &domain.VoucherStats{}
	for _, v := range r.db.vouchers {
		if campaignID == "" || v.CampaignID == campaignID {
			s.Add(v)
		}
	}
	return s, nil
}

func (r *VoucherRepo) ListDue(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var codes []string
	for _, v := range r.db.vouchers {
		if (v.Status == domain.VoucherScheduled || v.Status == domain.VoucherActive) && v.IsExpiredAt(now) {
			codes = append(codes, v.Code)
		}
	}
	sort.Strings(codes)
	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}
	return codes, nil
}
