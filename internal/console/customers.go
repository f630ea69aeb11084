package console

import (
	"context"
	"io"
	"time"

	"github.com/ignite/voucher-console/internal/crud"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/export"
	"github.com/ignite/voucher-console/internal/notify"
	"github.com/ignite/voucher-console/internal/querycache"
	"github.com/ignite/voucher-console/internal/querykey"
)

// CustomerResource is the cached CRUD resource of customers.
type CustomerResource = crud.Resource[domain.Customer, domain.CustomerFilter, domain.CustomerInput, domain.CustomerPatch, domain.CustomerStats]

// Customers binds customer screens to the API.
type Customers struct {
	*CustomerResource
	c     *Console
	stale time.Duration
}

func newCustomers(c *Console, stale time.Duration) *Customers {
	cl := c.client
	res := crud.New(c.cache, crud.Transport[domain.Customer, domain.CustomerFilter, domain.CustomerInput, domain.CustomerPatch, domain.CustomerStats]{
		List:   cl.ListCustomers,
		Get:    cl.GetCustomer,
		Create: cl.CreateCustomer,
		Update: cl.UpdateCustomer,
		Delete: cl.DeleteCustomer,
		Stats:  cl.CustomerStats,
	}, crud.Config[domain.Customer, domain.CustomerPatch]{
		Name:      customerKeys.Resource(),
		Label:     "customer",
		ID:        func(v domain.Customer) string { return v.ID },
		Patch:     func(v domain.Customer, p domain.CustomerPatch) domain.Customer { return p.Apply(v) },
		StaleTime: stale,
		Notifier:  c.notifier,
	})
	return &Customers{CustomerResource: res, c: c, stale: stale}
}

func customerVoucherKey(id string) querykey.Key { return customerKeys.Sub("vouchers", id) }

// Search lists customers whose name, phone or email contains q.
func (b *Customers) Search(ctx context.Context, q string, page int) (domain.Page[domain.Customer], error) {
	return b.List(ctx, domain.CustomerFilter{Search: q, Page: page})
}

// Vouchers lists the vouchers assigned to a customer.
func (b *Customers) Vouchers(ctx context.Context, id string, f domain.VoucherFilter) (domain.Page[domain.Voucher], error) {
	if id == "" {
		return domain.Page[domain.Voucher]{}, crud.ErrDisabled
	}
	return querycache.Fetch(ctx, b.c.cache, customerVoucherKey(id).Append(querykey.Canonical(f)), b.stale,
		func(ctx context.Context) (domain.Page[domain.Voucher], error) {
			return b.c.client.CustomerVouchers(ctx, id, f)
		})
}

// GrantVoucher issues a voucher from a campaign to the customer and, when a
// channel is given, delivers it.
func (b *Customers) GrantVoucher(ctx context.Context, id string, in domain.GrantVoucherInput) (domain.Voucher, error) {
	v, err := b.c.client.GrantVoucher(ctx, id, in)
	if err != nil {
		b.c.fail("customers", "grant", err, "Failed to grant voucher")
		return v, err
	}
	b.c.invalidate(ctx, customerKeys.Detail(id), customerKeys.Lists(), customerKeys.Stats(), customerVoucherKey(id),
		voucherKeys.All(), campaignKeys.Detail(in.CampaignID), logKeys.All())
	msg := "Voucher " + v.Code + " granted"
	if in.Channel != "" {
		msg += " and sent by " + in.Channel
	}
	b.c.notify(notify.Success, "customers", "grant", msg)
	return v, nil
}

// UpdateNote replaces the customer's notes.
func (b *Customers) UpdateNote(ctx context.Context, id, note string) (domain.Customer, error) {
	return b.Update(ctx, id, domain.CustomerPatch{Notes: &note}, crud.WithSuccess("Note saved"))
}

// ExportCSV writes every customer matching f to w and returns the suggested
// file name and the row count.
func (b *Customers) ExportCSV(ctx context.Context, w io.Writer, f domain.CustomerFilter) (string, int, error) {
	return exportAll(ctx, b.c, w, "customers", export.CustomerTable, func(ctx context.Context, page, limit int) (domain.Page[domain.Customer], error) {
		f.Page, f.Limit = page, limit
		return b.c.client.ListCustomers(ctx, f)
	})
}
