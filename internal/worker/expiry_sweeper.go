// Package worker runs the voucher backend's background jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/voucher-console/internal/metrics"
	"github.com/ignite/voucher-console/internal/pkg/distlock"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SweepLockKey is the distributed lock held while a sweep runs.
const SweepLockKey = "expiry-sweep"

const sweepTimeout = 5 * time.Minute

// VoucherExpirer moves vouchers past their expiry to expired.
type VoucherExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// CampaignExpirer moves campaigns past their end date to expired.
type CampaignExpirer interface {
	ExpireEnded(ctx context.Context) (int, error)
}

// LockFactory returns a fresh lock for one sweep.
type LockFactory func() distlock.Lock

// SweepResult reports one sweep.
type SweepResult struct {
	Skipped   bool
	Vouchers  int
	Campaigns int
}

// ExpirySweeper expires due vouchers and ended campaigns on a cron schedule.
// Only one process across the deployment sweeps at a time.
type ExpirySweeper struct {
	vouchers  VoucherExpirer
	campaigns CampaignExpirer
	newLock   LockFactory
	schedule  string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool

	sweeps  int64
	expired int64
}

// NewExpirySweeper creates a sweeper. campaigns may be nil.
func NewExpirySweeper(v VoucherExpirer, c CampaignExpirer, newLock LockFactory, schedule string) *ExpirySweeper {
	if newLock == nil {
		newLock = func() distlock.Lock { return distlock.NewLocalLock(SweepLockKey) }
	}
	return &ExpirySweeper{vouchers: v, campaigns: c, newLock: newLock, schedule: schedule}
}

// Start schedules sweeps. It runs one sweep immediately.
func (s *ExpirySweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("sweeper already running")
	}
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron = c
	s.running = true
	c.Start()
	go s.tick()

	logger.Info("[worker] expiry sweeper started", "schedule", s.schedule)
	return nil
}

// Stop waits for a running sweep and stops scheduling.
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	logger.Info("[worker] expiry sweeper stopped",
		"sweeps", atomic.LoadInt64(&s.sweeps), "expired", atomic.LoadInt64(&s.expired))
}

func (s *ExpirySweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		logger.Error("[worker] sweep failed", "error", err)
	}
}

// RunOnce performs one sweep if the lock is free.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	lock := s.newLock()
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !acquired {
		logger.Debug("[worker] sweep already running elsewhere")
		return SweepResult{Skipped: true}, nil
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("[worker] releasing sweep lock", "error", err)
		}
	}()

	var res SweepResult
	start := time.Now()
	res.Vouchers, err = s.vouchers.ExpireDue(ctx)
	if err != nil {
		return res, fmt.Errorf("expire vouchers: %w", err)
	}
	if s.campaigns != nil {
		res.Campaigns, err = s.campaigns.ExpireEnded(ctx)
		if err != nil {
			return res, fmt.Errorf("expire campaigns: %w", err)
		}
	}

	atomic.AddInt64(&s.sweeps, 1)
	atomic.AddInt64(&s.expired, int64(res.Vouchers))
	metrics.VouchersExpired.Add(float64(res.Vouchers))
	if res.Vouchers > 0 || res.Campaigns > 0 {
		logger.Info("[worker] sweep complete",
			"vouchers", res.Vouchers, "campaigns", res.Campaigns, "duration", time.Since(start).String())
	}
	return res, nil
}
