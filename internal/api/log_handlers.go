package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/voucher-console/internal/pkg/httputil"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
)

// GET /api/logs
func (h *Handlers) listLogs(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	q := r.URL.Query()
	from, err := parseTime(q.Get("from"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	items, total, err := h.Logs.List(r.Context(), voucherlog.ListFilter{
		VoucherCode: q.Get("voucher_code"),
		Action:      q.Get("action"),
		Actor:       q.Get("actor"),
		From:        from,
		To:          to,
		Limit:       p.Limit,
		Offset:      p.Offset(),
	})
	if err != nil {
		respondServiceError(w, err, "list logs")
		return
	}
	httputil.OK(w, newPage(items, p, total))
}

// GET /api/logs/stats
func (h *Handlers) logStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Logs.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err, "log stats")
		return
	}
	httputil.OK(w, st)
}

// GET /api/logs/{id}
func (h *Handlers) getLog(w http.ResponseWriter, r *http.Request) {
	l, err := h.Logs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "get log")
		return
	}
	httputil.OK(w, l)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: use RFC 3339", s)
	}
	return &t, nil
}
