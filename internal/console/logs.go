package console

import (
	"context"
	"io"
	"time"

	"github.com/ignite/voucher-console/internal/crud"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/export"
)

// LogResource is the cached read-only resource of usage logs.
type LogResource = crud.Resource[domain.VoucherLog, domain.LogFilter, struct{}, struct{}, domain.LogStats]

// Logs binds the usage log screens to the API. Logs are append-only; the
// write operations of the embedded resource return crud.ErrUnsupported.
type Logs struct {
	*LogResource
	c *Console
}

func newLogs(c *Console, stale time.Duration) *Logs {
	cl := c.client
	res := crud.New(c.cache, crud.Transport[domain.VoucherLog, domain.LogFilter, struct{}, struct{}, domain.LogStats]{
		List:  cl.ListLogs,
		Get:   cl.GetLog,
		Stats: cl.LogStats,
	}, crud.Config[domain.VoucherLog, struct{}]{
		Name:      logKeys.Resource(),
		Label:     "log entry",
		ID:        func(l domain.VoucherLog) string { return l.ID },
		StaleTime: stale,
		Notifier:  c.notifier,
	})
	return &Logs{LogResource: res, c: c}
}

// ForVoucher lists the history of one voucher, newest first.
func (b *Logs) ForVoucher(ctx context.Context, code string, page int) (domain.Page[domain.VoucherLog], error) {
	return b.List(ctx, domain.LogFilter{VoucherCode: code, Page: page})
}

// ExportCSV writes every log entry matching f to w and returns the suggested
// file name and the row count.
func (b *Logs) ExportCSV(ctx context.Context, w io.Writer, f domain.LogFilter) (string, int, error) {
	return exportAll(ctx, b.c, w, "voucher-logs", export.LogTable, func(ctx context.Context, page, limit int) (domain.Page[domain.VoucherLog], error) {
		f.Page, f.Limit = page, limit
		return b.c.client.ListLogs(ctx, f)
	})
}
