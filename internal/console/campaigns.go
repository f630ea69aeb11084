package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ignite/voucher-console/internal/crud"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/export"
	"github.com/ignite/voucher-console/internal/notify"
)

// CampaignResource is the cached CRUD resource of campaigns.
type CampaignResource = crud.Resource[domain.Campaign, domain.CampaignFilter, domain.CampaignInput, domain.CampaignPatch, domain.CampaignStats]

// Campaigns binds campaign screens to the API.
type Campaigns struct {
	*CampaignResource
	c *Console
}

func newCampaigns(c *Console, stale time.Duration) *Campaigns {
	cl := c.client
	res := crud.New(c.cache, crud.Transport[domain.Campaign, domain.CampaignFilter, domain.CampaignInput, domain.CampaignPatch, domain.CampaignStats]{
		List:   cl.ListCampaigns,
		Get:    cl.GetCampaign,
		Create: cl.CreateCampaign,
		Update: cl.UpdateCampaign,
		Delete: cl.DeleteCampaign,
		Stats:  cl.CampaignStats,
	}, crud.Config[domain.Campaign, domain.CampaignPatch]{
		Name:      campaignKeys.Resource(),
		Label:     "campaign",
		ID:        func(v domain.Campaign) string { return v.ID },
		Patch:     func(v domain.Campaign, p domain.CampaignPatch) domain.Campaign { return p.Apply(v) },
		StaleTime: stale,
		Notifier:  c.notifier,
	})
	return &Campaigns{CampaignResource: res, c: c}
}

// Search lists campaigns whose name or description contains q.
func (b *Campaigns) Search(ctx context.Context, q string, page int) (domain.Page[domain.Campaign], error) {
	return b.List(ctx, domain.CampaignFilter{Search: q, Page: page})
}

// Activate starts a draft or inactive campaign.
func (b *Campaigns) Activate(ctx context.Context, id string) (domain.Campaign, error) {
	st := domain.CampaignActive
	return b.Update(ctx, id, domain.CampaignPatch{Status: &st}, crud.WithSuccess("Campaign activated"))
}

// Deactivate pauses an active campaign.
func (b *Campaigns) Deactivate(ctx context.Context, id string) (domain.Campaign, error) {
	st := domain.CampaignInactive
	return b.Update(ctx, id, domain.CampaignPatch{Status: &st}, crud.WithSuccess("Campaign deactivated"))
}

// IssueVouchers generates count vouchers under the campaign. Zero issues the
// whole remaining allotment.
func (b *Campaigns) IssueVouchers(ctx context.Context, id string, count int) (domain.BulkVoucherResult, error) {
	res, err := b.c.client.IssueVouchers(ctx, id, domain.IssueInput{Count: count})
	if err != nil {
		b.c.fail("campaigns", "issue", err, "Failed to issue vouchers")
		return res, err
	}
	b.c.invalidate(ctx, campaignKeys.Detail(id), campaignKeys.Lists(), campaignKeys.Stats(), voucherKeys.All(), logKeys.All())
	b.c.notify(notify.Success, "campaigns", "issue", fmt.Sprintf("Issued %d vouchers", res.Created))
	return res, nil
}

// ExportCSV writes every campaign matching f to w and returns the suggested
// file name and the row count.
func (b *Campaigns) ExportCSV(ctx context.Context, w io.Writer, f domain.CampaignFilter) (string, int, error) {
	return exportAll(ctx, b.c, w, "campaigns", export.CampaignTable, func(ctx context.Context, page, limit int) (domain.Page[domain.Campaign], error) {
		f.Page, f.Limit = page, limit
		return b.c.client.ListCampaigns(ctx, f)
	})
}
