package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ignite/voucher-console/internal/crud"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/export"
	"github.com/ignite/voucher-console/internal/notify"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/querycache"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultQRSize is the edge length in pixels of generated QR images.
	DefaultQRSize   = 256
	bulkParallelism = 4
)

// VoucherResource is the cached CRUD resource of vouchers.
type VoucherResource = crud.Resource[domain.Voucher, domain.VoucherFilter, domain.VoucherInput, domain.VoucherPatch, domain.VoucherStats]

// Vouchers binds voucher screens to the API. Delete deactivates; vouchers
// are never removed.
type Vouchers struct {
	*VoucherResource
	c *Console
}

func newVouchers(c *Console, stale time.Duration) *Vouchers {
	cl := c.client
	res := crud.New(c.cache, crud.Transport[domain.Voucher, domain.VoucherFilter, domain.VoucherInput, domain.VoucherPatch, domain.VoucherStats]{
		List:   cl.ListVouchers,
		Get:    cl.GetVoucher,
		Create: cl.CreateVoucher,
		Update: cl.UpdateVoucher,
		Delete: func(ctx context.Context, code string) error {
			_, err := cl.DeactivateVoucher(ctx, code)
			return err
		},
		Stats: func(ctx context.Context) (domain.VoucherStats, error) { return cl.VoucherStats(ctx, "") },
	}, crud.Config[domain.Voucher, domain.VoucherPatch]{
		Name:      voucherKeys.Resource(),
		Label:     "voucher",
		ID:        func(v domain.Voucher) string { return v.Code },
		Patch:     func(v domain.Voucher, p domain.VoucherPatch) domain.Voucher { return p.Apply(v) },
		StaleTime: stale,
		Notifier:  c.notifier,
	})
	return &Vouchers{VoucherResource: res, c: c}
}

// Search lists vouchers whose code contains q.
func (b *Vouchers) Search(ctx context.Context, q string, page int) (domain.Page[domain.Voucher], error) {
	return b.List(ctx, domain.VoucherFilter{Search: q, Page: page})
}

// ByCampaign lists the vouchers of one campaign.
func (b *Vouchers) ByCampaign(ctx context.Context, campaignID string, page int) (domain.Page[domain.Voucher], error) {
	return b.List(ctx, domain.VoucherFilter{CampaignID: campaignID, Page: page})
}

// CampaignStats aggregates the vouchers of one campaign.
func (b *Vouchers) CampaignStats(ctx context.Context, campaignID string) (domain.VoucherStats, error) {
	if campaignID == "" {
		return b.Stats(ctx)
	}
	return querycache.Fetch(ctx, b.c.cache, voucherKeys.Stats().Append(campaignID), 0,
		func(ctx context.Context) (domain.VoucherStats, error) {
			return b.c.client.VoucherStats(ctx, campaignID)
		})
}

// BulkCreate generates vouchers for a campaign in one request.
func (b *Vouchers) BulkCreate(ctx context.Context, in domain.BulkVoucherInput) (domain.BulkVoucherResult, error) {
	res, err := b.c.client.BulkCreateVouchers(ctx, in)
	if err != nil {
		b.c.fail("vouchers", "bulk_create", err, "Failed to create vouchers")
		return res, err
	}
	b.c.invalidate(ctx, voucherKeys.Lists(), voucherKeys.Stats(), campaignKeys.Detail(in.CampaignID),
		campaignKeys.Lists(), campaignKeys.Stats(), logKeys.All())
	b.c.notify(notify.Success, "vouchers", "bulk_create", fmt.Sprintf("Created %d vouchers", res.Created))
	return res, nil
}

// SetStatus moves one voucher to status.
func (b *Vouchers) SetStatus(ctx context.Context, code string, status domain.VoucherStatus, opts ...crud.Option) (domain.Voucher, error) {
	v, err := b.Update(ctx, code, domain.VoucherPatch{Status: &status}, opts...)
	if err == nil {
		b.c.invalidate(ctx, logKeys.All())
	}
	return v, err
}

// BulkSetStatus moves every code to status and reports once. It returns the
// number of vouchers changed and the joined failures.
func (b *Vouchers) BulkSetStatus(ctx context.Context, codes []string, status domain.VoucherStatus) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkParallelism)

	errs := make([]error, len(codes))
	for i, code := range codes {
		g.Go(func() error {
			if _, err := b.SetStatus(gctx, code, status, crud.Silent()); err != nil {
				errs[i] = fmt.Errorf("%s: %w", code, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	done := len(codes) - failed
	switch {
	case failed == 0:
		b.c.notify(notify.Success, "vouchers", "bulk_status", fmt.Sprintf("Updated %d vouchers", done))
	case done == 0:
		b.c.notify(notify.Error, "vouchers", "bulk_status", fmt.Sprintf("Failed to update %d vouchers", failed))
	default:
		b.c.notify(notify.Warning, "vouchers", "bulk_status", fmt.Sprintf("Updated %d vouchers, %d failed", done, failed))
	}
	return done, errors.Join(errs...)
}

// Redeem marks a voucher used against an order.
func (b *Vouchers) Redeem(ctx context.Context, code string, in domain.RedeemInput) (domain.Voucher, error) {
	v, err := b.c.client.RedeemVoucher(ctx, code, in)
	if err != nil {
		b.c.fail("vouchers", "redeem", err, "Failed to redeem voucher")
		return v, err
	}
	b.afterServerWrite(ctx, v)
	b.c.notify(notify.Success, "vouchers", "redeem", "Voucher "+v.Code+" redeemed")
	return v, nil
}

// Scan looks a voucher up at a point of sale.
func (b *Vouchers) Scan(ctx context.Context, code string) (domain.Voucher, error) {
	v, err := b.c.client.ScanVoucher(ctx, code)
	if err != nil {
		b.c.fail("vouchers", "scan", err, "Voucher not found")
		return v, err
	}
	b.afterServerWrite(ctx, v)
	return v, nil
}

// afterServerWrite caches v and invalidates what a write elsewhere touched.
func (b *Vouchers) afterServerWrite(ctx context.Context, v domain.Voucher) {
	if err := querycache.Put(ctx, b.c.cache, voucherKeys.Detail(v.Code), v); err != nil {
		logger.Warn("[console] cache write failed", "code", v.Code, "error", err)
	}
	b.c.invalidate(ctx, voucherKeys.Lists(), voucherKeys.Stats(), logKeys.All(),
		campaignKeys.Detail(v.CampaignID), campaignKeys.Lists(), customerKeys.All())
}

// QRCode encodes the voucher's QR payload as a PNG data URL. It runs locally
// without a server round trip. size <= 0 uses DefaultQRSize.
func (b *Vouchers) QRCode(v domain.Voucher, size int) (string, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	return export.QRDataURL(v.QRContent(), size)
}

// ExportCSV writes every voucher matching f to w and returns the suggested
// file name and the row count.
func (b *Vouchers) ExportCSV(ctx context.Context, w io.Writer, f domain.VoucherFilter) (string, int, error) {
	return exportAll(ctx, b.c, w, "vouchers", export.VoucherTable, func(ctx context.Context, page, limit int) (domain.Page[domain.Voucher], error) {
		f.Page, f.Limit = page, limit
		return b.c.client.ListVouchers(ctx, f)
	})
}
