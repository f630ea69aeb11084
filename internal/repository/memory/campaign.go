package memory

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository in memory.
type CampaignRepo struct{ db *DB }

var _ campaign.Repository = (*CampaignRepo)(nil)

func (r *CampaignRepo) Get(_ context.Context, id string) (*domain.Campaign, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	c = r.withCounts(c)
	return &c, nil
}

// withCounts fills the derived counters. Caller holds the lock.
func (r *CampaignRepo) withCounts(c domain.Campaign) domain.Campaign {
	c.IssuedCount, c.RedeemedCount = 0, 0
	for _, v := range r.db.vouchers {
		if v.CampaignID != c.ID {
			continue
		}
		c.IssuedCount++
		if v.Status == domain.VoucherUsed {
			c.RedeemedCount++
		}
	}
	c.Channels = cloneStrings(c.Channels)
	return c
}

func (r *CampaignRepo) List(_ context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(r.db.campaigns))
	for _, c := range r.db.campaigns {
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		if f.Search != "" && !contains(c.Name, f.Search) && !contains(c.Description, f.Search) {
			continue
		}
		out = append(out, r.withCounts(c))
	}
	sortNewest(out,
		func(c domain.Campaign) int64 { return c.CreatedAt.UnixNano() },
		func(c domain.Campaign) string { return c.ID })
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (r *CampaignRepo) Create(_ context.Context, c *domain.Campaign) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *c
	cp.Channels = cloneStrings(c.Channels)
	cp.IssuedCount, cp.RedeemedCount = 0, 0
	r.db.campaigns[c.ID] = cp
	return nil
}

func (r *CampaignRepo) Update(_ context.Context, id string, u campaign.UpdateFields) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c = domain.CampaignPatch(u).Apply(c)
	c.UpdatedAt = time.Now().UTC()
	r.db.campaigns[id] = c
	return nil
}

func (r *CampaignRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.campaigns[id]; !ok {
		return campaign.ErrNotFound
	}
	delete(r.db.campaigns, id)
	for code, v := range r.db.vouchers {
		if v.CampaignID == id {
			delete(r.db.vouchers, code)
		}
	}
	return nil
}

func (r *CampaignRepo) Stats(_ context.Context) (*domain.CampaignStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s := &domain.CampaignStats{}
	for _, c := range r.db.campaigns {
		s.Add(r.withCounts(c))
	}
	return s, nil
}
