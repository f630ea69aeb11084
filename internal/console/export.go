package console

import (
	"context"
	"fmt"
	"io"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/export"
	"github.com/ignite/voucher-console/internal/notify"
)

const (
	exportPageSize = 200
	exportMaxRows  = 100000
)

// exportAll pages through a listing and writes it as CSV. Pages are read
// from the API directly so a large export does not fill the query cache.
func exportAll[T any](ctx context.Context, c *Console, w io.Writer, name string, table export.Table[T],
	fetch func(ctx context.Context, page, limit int) (domain.Page[T], error)) (string, int, error) {
	var rows []T
	for page := 1; ; page++ {
		p, err := fetch(ctx, page, exportPageSize)
		if err != nil {
			c.fail(name, "export", err, "Export failed")
			return "", 0, err
		}
		rows = append(rows, p.Data...)
		if !p.Pagination.HasMore || len(p.Data) == 0 {
			break
		}
		if len(rows) >= exportMaxRows {
			err := fmt.Errorf("export %s: more than %d rows, narrow the filter", name, exportMaxRows)
			c.fail(name, "export", err, err.Error())
			return "", 0, err
		}
	}
	if err := table.WriteCSV(w, rows); err != nil {
		c.fail(name, "export", err, "Export failed")
		return "", 0, err
	}
	c.notify(notify.Success, name, "export", fmt.Sprintf("Exported %d %s", len(rows), name))
	return export.Filename(name, c.now()), len(rows), nil
}
