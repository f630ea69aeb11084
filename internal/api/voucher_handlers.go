package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/metrics"
	"github.com/ignite/voucher-console/internal/pkg/httputil"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/service/voucher"
)

// QRImageURLHeader carries the stored image URL of a rendered QR code.
const QRImageURLHeader = "X-QR-Image-URL"

// GET /api/vouchers
func (h *Handlers) listVouchers(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	q := r.URL.Query()
	items, total, err := h.Vouchers.List(r.Context(), voucher.ListFilter{
		Status:     q.Get("status"),
		CampaignID: q.Get("campaign_id"),
		CustomerID: q.Get("customer_id"),
		Search:     q.Get("search"),
		Limit:      p.Limit,
		Offset:     p.Offset(),
	})
	if err != nil {
		respondServiceError(w, err, "list vouchers")
		return
	}
	httputil.OK(w, newPage(items, p, total))
}

// GET /api/vouchers/stats?campaign_id=
func (h *Handlers) voucherStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Vouchers.Stats(r.Context(), r.URL.Query().Get("campaign_id"))
	if err != nil {
		respondServiceError(w, err, "voucher stats")
		return
	}
	httputil.OK(w, st)
}

// GET /api/vouchers/{code}
func (h *Handlers) getVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := h.Vouchers.Get(r.Context(), urlParam(r, "code"))
	if err != nil {
		respondServiceError(w, err, "get voucher")
		return
	}
	httputil.OK(w, v)
}

// POST /api/vouchers
func (h *Handlers) createVoucher(w http.ResponseWriter, r *http.Request) {
	var in domain.VoucherInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	v, err := h.Vouchers.Create(r.Context(), in, actorFrom(r))
	metrics.RecordMutation("vouchers", "create", err)
	if err != nil {
		respondServiceError(w, err, "create voucher")
		return
	}
	httputil.Created(w, v)
}

// POST /api/vouchers/bulk
func (h *Handlers) bulkCreateVouchers(w http.ResponseWriter, r *http.Request) {
	var in domain.BulkVoucherInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	res, err := h.Vouchers.BulkCreate(r.Context(), in, actorFrom(r))
	metrics.RecordMutation("vouchers", "bulk_create", err)
	if err != nil {
		respondServiceError(w, err, "bulk create vouchers")
		return
	}
	httputil.Created(w, res)
}

// PUT /api/vouchers/{code}
func (h *Handlers) updateVoucher(w http.ResponseWriter, r *http.Request) {
	var patch domain.VoucherPatch
	if !httputil.Decode(w, r, &patch) {
		return
	}
	v, err := h.Vouchers.Update(r.Context(), urlParam(r, "code"), voucher.UpdateFields{
		Status:     patch.Status,
		CustomerID: patch.CustomerID,
		ExpiresAt:  patch.ExpiresAt,
		Value:      patch.Value,
	}, actorFrom(r))
	metrics.RecordMutation("vouchers", "update", err)
	if err != nil {
		respondServiceError(w, err, "update voucher")
		return
	}
	httputil.OK(w, v)
}

// DELETE /api/vouchers/{code} deactivates; vouchers are never hard-deleted.
func (h *Handlers) deactivateVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := h.Vouchers.Deactivate(r.Context(), urlParam(r, "code"), actorFrom(r))
	metrics.RecordMutation("vouchers", "delete", err)
	if err != nil {
		respondServiceError(w, err, "deactivate voucher")
		return
	}
	httputil.OK(w, v)
}

// POST /api/vouchers/{code}/redeem
func (h *Handlers) redeemVoucher(w http.ResponseWriter, r *http.Request) {
	var in domain.RedeemInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	v, err := h.Vouchers.Redeem(r.Context(), urlParam(r, "code"), in, actorFrom(r))
	metrics.RecordMutation("vouchers", "redeem", err)
	if err != nil {
		respondServiceError(w, err, "redeem voucher")
		return
	}
	httputil.OK(w, v)
}

// POST /api/vouchers/{code}/scan
func (h *Handlers) scanVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := h.Vouchers.Scan(r.Context(), urlParam(r, "code"), actorFrom(r))
	if err != nil {
		respondServiceError(w, err, "scan voucher")
		return
	}
	httputil.OK(w, v)
}

// GET /api/vouchers/{code}/qr
func (h *Handlers) voucherQR(w http.ResponseWriter, r *http.Request) {
	png, v, err := h.Vouchers.QRImage(r.Context(), urlParam(r, "code"))
	if err != nil {
		respondServiceError(w, err, "voucher qr")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if v.QRImageURL != "" {
		w.Header().Set(QRImageURLHeader, v.QRImageURL)
	}
	if _, err := w.Write(png); err != nil {
		logger.Warn("[api] qr write failed", "code", v.Code, "error", err)
	}
}
