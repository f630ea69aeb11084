package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/export"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/pkg/validate"
)

const (
	maxCodeAttempts    = 3
	defaultExpiryBatch = 500
	qrImageSize        = 256
)

// Service implements voucher business logic. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo      Repository
	campaigns CampaignReader
	audit     AuditLog
	codes     *CodeGenerator
	images    ImageStore
	batch     int
	now       func() time.Time
}

// NewService creates a voucher service.
func NewService(repo Repository, campaigns CampaignReader, audit AuditLog, codes *CodeGenerator) *Service {
	if codes == nil {
		codes = NewCodeGenerator("")
	}
	return &Service{repo: repo, campaigns: campaigns, audit: audit, codes: codes, batch: defaultExpiryBatch, now: time.Now}
}

// SetImageStore enables persisting rendered QR images.
func (s *Service) SetImageStore(store ImageStore) { s.images = store }

// SetExpiryBatch sets how many due vouchers ExpireDue reads per query.
func (s *Service) SetExpiryBatch(n int) {
	if n > 0 {
		s.batch = n
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Get returns a voucher by code.
func (s *Service) Get(ctx context.Context, code string) (*domain.Voucher, error) {
	return s.repo.Get(ctx, NormalizeCode(code))
}

// List returns vouchers matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Voucher, int, error) {
	if f.Status != "" && !domain.VoucherStatus(f.Status).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, f.Status)
	}
	return s.repo.List(ctx, f)
}

// Stats aggregates vouchers, optionally for one campaign.
func (s *Service) Stats(ctx context.Context, campaignID string) (*domain.VoucherStats, error) {
	return s.repo.Stats(ctx, campaignID)
}

// Create validates and stores one voucher. A missing code is generated; a
// missing value or expiry is taken from the campaign.
func (s *Service) Create(ctx context.Context, in domain.VoucherInput, actor domain.Actor) (*domain.Voucher, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	camp, err := s.openCampaign(ctx, in.CampaignID, 1)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	v := s.newVoucher(camp, now)
	if in.Value > 0 {
		v.Value = in.Value
	}
	if in.ExpiresAt != nil {
		t := in.ExpiresAt.UTC()
		v.ExpiresAt = &t
	}
	if in.CustomerID != "" {
		id := in.CustomerID
		v.CustomerID = &id
	}
	if in.Status != "" {
		st := domain.VoucherStatus(in.Status)
		if st != domain.VoucherActive && st != domain.VoucherScheduled && st != domain.VoucherInactive {
			return nil, fmt.Errorf("%w: cannot create a voucher as %q", ErrInvalidTransition, in.Status)
		}
		v.Status = st
	}

	code := NormalizeCode(in.Code)
	for attempt := 0; ; attempt++ {
		v.Code = code
		if v.Code == "" {
			v.Code = s.codes.Code(camp.ID, uint64(camp.IssuedCount)+uint64(attempt)<<20, "")
		}
		v.QRPayload = v.Code
		err = s.repo.Create(ctx, &v)
		if !errors.Is(err, ErrDuplicate) || code != "" || attempt+1 >= maxCodeAttempts {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, v.Code, domain.ActionCreated, actor, "")
	return &v, nil
}

// BulkCreate generates and stores in.Count vouchers for a campaign in one
// batch.
func (s *Service) BulkCreate(ctx context.Context, in domain.BulkVoucherInput, actor domain.Actor) (*domain.BulkVoucherResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	camp, err := s.openCampaign(ctx, in.CampaignID, in.Count)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var created int
	var vs []domain.Voucher
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		vs = s.generate(camp, in, now, uint64(camp.IssuedCount)+uint64(attempt)<<24)
		created, err = s.repo.CreateBatch(ctx, vs)
		if !errors.Is(err, ErrDuplicate) {
			break
		}
		logger.Warn("[voucher.Service] code collision, regenerating batch", "campaign_id", camp.ID, "attempt", attempt+1)
	}
	if err != nil {
		return nil, err
	}

	res := &domain.BulkVoucherResult{CampaignID: camp.ID, Created: created, Codes: make([]string, len(vs))}
	for i, v := range vs {
		res.Codes[i] = v.Code
		s.record(ctx, v.Code, domain.ActionCreated, actor, "bulk")
	}
	logger.Info("[voucher.Service] bulk created vouchers", "campaign_id", camp.ID, "count", created)
	return res, nil
}

// IssueForCampaign issues in.Count vouchers at the campaign's value.
func (s *Service) IssueForCampaign(ctx context.Context, campaignID string, in domain.IssueInput, actor domain.Actor) (*domain.BulkVoucherResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	return s.BulkCreate(ctx, domain.BulkVoucherInput{
		CampaignID: campaignID,
		Count:      in.Count,
		ExpiresAt:  in.ExpiresAt,
	}, actor)
}

func (s *Service) generate(camp *domain.Campaign, in domain.BulkVoucherInput, now time.Time, base uint64) []domain.Voucher {
	vs := make([]domain.Voucher, 0, in.Count)
	seen := make(map[string]struct{}, in.Count)
	for seq := base; len(vs) < in.Count; seq++ {
		code := s.codes.Code(camp.ID, seq, in.Prefix)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		v := s.newVoucher(camp, now)
		v.Code, v.QRPayload = code, code
		if in.Value > 0 {
			v.Value = in.Value
		}
		if in.ExpiresAt != nil {
			t := in.ExpiresAt.UTC()
			v.ExpiresAt = &t
		}
		vs = append(vs, v)
	}
	return vs
}

func (s *Service) newVoucher(camp *domain.Campaign, now time.Time) domain.Voucher {
	status := domain.VoucherScheduled
	if camp.IsRunningAt(now) {
		status = domain.VoucherActive
	}
	end := camp.EndDate.UTC()
	return domain.Voucher{
		CampaignID: camp.ID,
		Status:     status,
		Value:      camp.VoucherValue,
		ExpiresAt:  &end,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// openCampaign loads a campaign that can take n more vouchers.
func (s *Service) openCampaign(ctx context.Context, id string, n int) (*domain.Campaign, error) {
	camp, err := s.campaigns.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if camp.Status == domain.CampaignExpired || camp.Status == domain.CampaignInactive {
		return nil, ErrCampaignClosed
	}
	if camp.TotalVouchers > 0 && camp.Remaining() < n {
		return nil, fmt.Errorf("%w: %d remaining, %d requested", ErrAllotmentExceeded, camp.Remaining(), n)
	}
	return camp, nil
}

// Update modifies a voucher. Status changes must follow the transition
// table and are written to the audit trail.
func (s *Service) Update(ctx context.Context, code string, u UpdateFields, actor domain.Actor) (*domain.Voucher, error) {
	code = NormalizeCode(code)
	v, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	changed := u.Status != nil && *u.Status != v.Status
	if u.Status != nil {
		if !u.Status.Valid() || !v.Status.CanTransition(*u.Status) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, v.Status, *u.Status)
		}
		if *u.Status == domain.VoucherUsed && u.UsedAt == nil {
			now := s.now().UTC()
			u.UsedAt = &now
		}
		from := v.Status
		u.FromStatus = &from
	}

	if err := s.repo.Update(ctx, code, u); err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, fmt.Errorf("%w: %s changed before %s was applied", ErrInvalidTransition, v.Status, *u.Status)
		}
		return nil, err
	}
	if changed {
		s.record(ctx, code, domain.ActionForStatus(*u.Status), actor, string(v.Status)+" -> "+string(*u.Status))
	}
	return s.repo.Get(ctx, code)
}

// Deactivate soft-deletes a voucher by moving it to inactive.
func (s *Service) Deactivate(ctx context.Context, code string, actor domain.Actor) (*domain.Voucher, error) {
	st := domain.VoucherInactive
	return s.Update(ctx, code, UpdateFields{Status: &st}, actor)
}

// Redeem marks an active voucher used against an order. A voucher found past
// its expiry is expired instead and ErrExpired is returned.
func (s *Service) Redeem(ctx context.Context, code string, in domain.RedeemInput, actor domain.Actor) (*domain.Voucher, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	code = NormalizeCode(code)
	v, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if v.IsExpiredAt(now) && !v.Status.IsTerminal() {
		if _, err := s.expire(ctx, code, v.Status); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}
	if v.Status != domain.VoucherActive {
		return nil, fmt.Errorf("%w: status is %s", ErrNotRedeemable, v.Status)
	}

	active, used := domain.VoucherActive, domain.VoucherUsed
	order := in.OrderID
	err = s.repo.Update(ctx, code, UpdateFields{FromStatus: &active, Status: &used, UsedAt: &now, OrderID: &order})
	if errors.Is(err, ErrStatusChanged) {
		return nil, fmt.Errorf("%w: redeemed or changed concurrently", ErrNotRedeemable)
	}
	if err != nil {
		return nil, err
	}
	if in.Channel != "" {
		actor.Channel = in.Channel
	}
	s.record(ctx, code, domain.ActionRedeem, actor, "order "+order)
	return s.repo.Get(ctx, code)
}

// Scan looks a voucher up at a point of sale and records the scan.
func (s *Service) Scan(ctx context.Context, code string, actor domain.Actor) (*domain.Voucher, error) {
	v, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	s.record(ctx, v.Code, domain.ActionScanned, actor, string(v.Status))
	return v, nil
}

// ExpireDue moves every scheduled or active voucher past its expiry to
// expired and returns how many were changed.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	total := 0
	for {
		codes, err := s.repo.ListDue(ctx, s.now().UTC(), s.batch)
		if err != nil {
			return total, fmt.Errorf("list due vouchers: %w", err)
		}
		if len(codes) == 0 {
			return total, nil
		}
		for _, code := range codes {
			ok, err := s.expireDue(ctx, code)
			if err != nil {
				return total, err
			}
			if ok {
				total++
			}
		}
		if len(codes) < s.batch {
			return total, nil
		}
	}
}

// expireDue re-reads a due voucher so a status change made since ListDue is
// not overwritten.
func (s *Service) expireDue(ctx context.Context, code string) (bool, error) {
	v, err := s.repo.Get(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("expire %s: %w", code, err)
	}
	if v.Status.IsTerminal() || !v.IsExpiredAt(s.now().UTC()) {
		return false, nil
	}
	return s.expire(ctx, code, v.Status)
}

// expire moves a voucher from status from to expired. It reports false when
// the voucher is gone or its status has moved on.
func (s *Service) expire(ctx context.Context, code string, from domain.VoucherStatus) (bool, error) {
	st := domain.VoucherExpired
	if err := s.repo.Update(ctx, code, UpdateFields{FromStatus: &from, Status: &st}); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStatusChanged) {
			return false, nil
		}
		return false, fmt.Errorf("expire %s: %w", code, err)
	}
	s.record(ctx, code, domain.ActionExpired, domain.Actor{Name: "system", Channel: "scheduler"}, "")
	return true, nil
}

// QRImage renders the voucher's QR code as PNG. With an image store
// configured, the first render is uploaded and its URL saved on the voucher.
func (s *Service) QRImage(ctx context.Context, code string) ([]byte, *domain.Voucher, error) {
	v, err := s.Get(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	png, err := export.QRPNG(v.QRContent(), qrImageSize)
	if err != nil {
		return nil, nil, fmt.Errorf("render qr %s: %w", v.Code, err)
	}
	if s.images != nil && v.QRImageURL == "" {
		url, err := s.images.Put(ctx, "qr/"+v.Code+".png", "image/png", png)
		if err != nil {
			logger.Warn("[voucher.Service] qr upload failed", "code", v.Code, "error", err)
			return png, v, nil
		}
		if err := s.repo.Update(ctx, v.Code, UpdateFields{QRImageURL: &url}); err != nil {
			logger.Warn("[voucher.Service] qr url save failed", "code", v.Code, "error", err)
		} else {
			v.QRImageURL = url
		}
	}
	return png, v, nil
}

func (s *Service) record(ctx context.Context, code string, action domain.LogAction, actor domain.Actor, note string) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(ctx, code, action, actor, note); err != nil {
		logger.Error("[voucher.Service] audit write failed", "code", code, "action", action, "error", err)
	}
}
