package voucherlog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
)

// Service records and reads voucher audit entries.
type Service struct {
	repo Repository
	pub  Publisher
	now  func() time.Time
}

// NewService creates a log service. pub may be nil.
func NewService(repo Repository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Record appends an entry for action on code and publishes it. Publishing
// failures are logged and do not fail the call.
func (s *Service) Record(ctx context.Context, code string, action domain.LogAction, actor domain.Actor, note string) (*domain.VoucherLog, error) {
	if !action.Valid() {
		return nil, ErrInvalidAction
	}
	l := &domain.VoucherLog{
		ID:          uuid.New().String(),
		VoucherCode: code,
		Action:      action,
		Actor:       actor.Name,
		Channel:     actor.Channel,
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		Note:        note,
		CreatedAt:   s.now().UTC(),
	}
	if l.Actor == "" {
		l.Actor = "system"
	}
	if err := s.repo.Append(ctx, l); err != nil {
		return nil, err
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, *l); err != nil {
			logger.Warn("[voucherlog.Service] publish failed", "voucher_code", code, "action", action, "error", err)
		}
	}
	return l, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id string) (*domain.VoucherLog, error) {
	return s.repo.Get(ctx, id)
}

// List returns entries matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.VoucherLog, int, error) {
	if f.Action != "" && !domain.LogAction(f.Action).Valid() {
		return nil, 0, ErrInvalidAction
	}
	f.VoucherCode = strings.ToUpper(strings.TrimSpace(f.VoucherCode))
	return s.repo.List(ctx, f)
}

// Stats aggregates entries, counting the last 24 hours separately.
func (s *Service) Stats(ctx context.Context) (*domain.LogStats, error) {
	return s.repo.Stats(ctx, s.now().Add(-24*time.Hour))
}
