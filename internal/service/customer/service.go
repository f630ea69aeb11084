package customer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/pkg/validate"
)

// Service implements customer business logic.
type Service struct {
	repo      Repository
	vouchers  VoucherIssuer
	deliverer Deliverer
	now       func() time.Time
}

// NewService creates a customer service. vouchers may be nil, in which case
// GrantVoucher is unavailable.
func NewService(repo Repository, vouchers VoucherIssuer) *Service {
	return &Service{repo: repo, vouchers: vouchers, now: time.Now}
}

// SetDeliverer wires voucher delivery for grants.
func (s *Service) SetDeliverer(d Deliverer) { s.deliverer = d }

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Customer, int, error) {
	return s.repo.List(ctx, f)
}

// Stats aggregates every customer.
func (s *Service) Stats(ctx context.Context) (*domain.CustomerStats, error) {
	return s.repo.Stats(ctx)
}

// Create validates and stores a customer. Phone numbers are unique.
func (s *Service) Create(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &domain.Customer{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Phone:     in.Phone,
		Email:     strings.ToLower(in.Email),
		Tags:      normalizeTags(in.Tags),
		Status:    domain.CustomerActive,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies u to a customer and returns the stored result.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) (*domain.Customer, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := domain.CustomerPatch(u).Apply(*cur)
	in := domain.CustomerInput{Name: next.Name, Phone: next.Phone, Email: next.Email, Notes: next.Notes}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if next.Status != domain.CustomerActive && next.Status != domain.CustomerInactive {
		return nil, fmt.Errorf("%w: unknown status %q", validate.ErrInvalid, next.Status)
	}
	if u.Tags != nil {
		u.Tags = normalizeTags(u.Tags)
	}
	if err := s.repo.Update(ctx, id, u); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a customer.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// GrantVoucher creates a voucher assigned to the customer and, with a
// deliverer configured, sends it. Delivery failures are logged and do not
// undo the grant.
func (s *Service) GrantVoucher(ctx context.Context, id string, in domain.GrantVoucherInput, actor domain.Actor) (*domain.Voucher, error) {
	if s.vouchers == nil {
		return nil, fmt.Errorf("grant voucher: no voucher issuer configured")
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.CustomerActive {
		return nil, ErrInactive
	}

	v, err := s.vouchers.Create(ctx, domain.VoucherInput{
		CampaignID: in.CampaignID,
		CustomerID: c.ID,
		ExpiresAt:  in.ExpiresAt,
	}, actor)
	if err != nil {
		return nil, err
	}

	if s.deliverer != nil {
		channel := in.Channel
		if channel == "" {
			channel = defaultChannel(*c)
		}
		if err := s.deliverer.Deliver(ctx, *c, *v, channel); err != nil {
			logger.Warn("[customer.Service] voucher delivery failed",
				"customer_id", c.ID, "code", v.Code, "channel", channel, "error", err)
		}
	}
	return v, nil
}

func defaultChannel(c domain.Customer) string {
	if c.Phone == "" && c.Email != "" {
		return domain.ChannelEmail
	}
	return domain.ChannelSMS
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
