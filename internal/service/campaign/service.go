package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/pkg/validate"
)

var transitions = map[domain.CampaignStatus][]domain.CampaignStatus{
	domain.CampaignDraft:    {domain.CampaignActive, domain.CampaignInactive},
	domain.CampaignActive:   {domain.CampaignInactive, domain.CampaignExpired},
	domain.CampaignInactive: {domain.CampaignActive, domain.CampaignExpired},
}

// CanTransition reports whether a campaign may move from one status to
// another. Expired campaigns are final.
func CanTransition(from, to domain.CampaignStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Service implements campaign business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo   Repository
	issuer Issuer
	now    func() time.Time
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetIssuer wires voucher issuance.
func (s *Service) SetIssuer(i Issuer) { s.issuer = i }

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	if f.Status != "" && !domain.CampaignStatus(f.Status).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, f.Status)
	}
	return s.repo.List(ctx, f)
}

// Stats aggregates every campaign.
func (s *Service) Stats(ctx context.Context) (*domain.CampaignStats, error) {
	return s.repo.Stats(ctx)
}

// Create validates and persists a new campaign in draft status.
func (s *Service) Create(ctx context.Context, in domain.CampaignInput) (*domain.Campaign, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &domain.Campaign{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Description:   in.Description,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		TotalVouchers: in.TotalVouchers,
		VoucherValue:  in.VoucherValue,
		Status:        domain.CampaignDraft,
		Channels:      append([]string{}, in.Channels...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", validate.ErrInvalid, err)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info("[campaign.Service] campaign created", "campaign_id", c.ID, "name", c.Name)
	return c, nil
}

// Update applies u after checking the merged campaign and any status change.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) (*domain.Campaign, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := domain.CampaignPatch(u).Apply(*cur)
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", validate.ErrInvalid, err)
	}
	if u.Status != nil && !CanTransition(cur.Status, *u.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, cur.Status, *u.Status)
	}
	if u.TotalVouchers != nil && *u.TotalVouchers > 0 && *u.TotalVouchers < cur.IssuedCount {
		return nil, fmt.Errorf("%w: %d issued", ErrBelowIssued, cur.IssuedCount)
	}
	if err := s.repo.Update(ctx, id, u); err != nil {
		return nil, err
	}
	if u.Status != nil && *u.Status != cur.Status {
		logger.Info("[campaign.Service] status changed", "campaign_id", id, "from", cur.Status, "to", *u.Status)
	}
	return s.repo.Get(ctx, id)
}

// SetStatus moves a campaign to status.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.CampaignStatus) (*domain.Campaign, error) {
	return s.Update(ctx, id, UpdateFields{Status: &status})
}

// Delete removes a campaign. Active campaigns must be deactivated first.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status == domain.CampaignActive {
		return ErrActive
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("[campaign.Service] campaign deleted", "campaign_id", id)
	return nil
}

// Issue generates vouchers under the campaign. A zero count issues the whole
// remaining allotment.
func (s *Service) Issue(ctx context.Context, id string, in domain.IssueInput, actor domain.Actor) (*domain.BulkVoucherResult, error) {
	if s.issuer == nil {
		return nil, ErrNoIssuer
	}
	if in.Count == 0 {
		c, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		in.Count = c.Remaining()
	}
	res, err := s.issuer.IssueForCampaign(ctx, id, in, actor)
	if err != nil {
		return nil, fmt.Errorf("issue vouchers for %s: %w", id, err)
	}
	return res, nil
}

// ExpireEnded moves active or inactive campaigns whose end date has passed
// to expired and returns how many changed.
func (s *Service) ExpireEnded(ctx context.Context) (int, error) {
	now := s.now().UTC()
	n := 0
	for _, st := range []domain.CampaignStatus{domain.CampaignActive, domain.CampaignInactive} {
		cs, _, err := s.repo.List(ctx, ListFilter{Status: string(st)})
		if err != nil {
			return n, err
		}
		expired := domain.CampaignExpired
		for _, c := range cs {
			if now.Before(c.EndDate) {
				continue
			}
			if err := s.repo.Update(ctx, c.ID, UpdateFields{Status: &expired}); err != nil {
				return n, fmt.Errorf("expire campaign %s: %w", c.ID, err)
			}
			n++
		}
	}
	return n, nil
}
