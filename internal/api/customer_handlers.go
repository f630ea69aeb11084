package api

import (
	"net/http"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/metrics"
	"github.com/ignite/voucher-console/internal/pkg/httputil"
	"github.com/ignite/voucher-console/internal/service/customer"
	"github.com/ignite/voucher-console/internal/service/voucher"
)

// GET /api/customers
func (h *Handlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	q := r.URL.Query()
	items, total, err := h.Customers.List(r.Context(), customer.ListFilter{
		Status: q.Get("status"),
		Tag:    q.Get("tag"),
		Search: q.Get("search"),
		Limit:  p.Limit,
		Offset: p.Offset(),
	})
	if err != nil {
		respondServiceError(w, err, "list customers")
		return
	}
	httputil.OK(w, newPage(items, p, total))
}

// GET /api/customers/stats
func (h *Handlers) customerStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Customers.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err, "customer stats")
		return
	}
	httputil.OK(w, st)
}

// GET /api/customers/{id}
func (h *Handlers) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Customers.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "get customer")
		return
	}
	httputil.OK(w, c)
}

// GET /api/customers/{id}/vouchers
func (h *Handlers) customerVouchers(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if _, err := h.Customers.Get(r.Context(), id); err != nil {
		respondServiceError(w, err, "customer vouchers")
		return
	}
	p := parsePage(r)
	items, total, err := h.Vouchers.List(r.Context(), voucher.ListFilter{
		CustomerID: id,
		Status:     r.URL.Query().Get("status"),
		Limit:      p.Limit,
		Offset:     p.Offset(),
	})
	if err != nil {
		respondServiceError(w, err, "customer vouchers")
		return
	}
	httputil.OK(w, newPage(items, p, total))
}

// POST /api/customers
func (h *Handlers) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in domain.CustomerInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.Customers.Create(r.Context(), in)
	metrics.RecordMutation("customers", "create", err)
	if err != nil {
		respondServiceError(w, err, "create customer")
		return
	}
	httputil.Created(w, c)
}

// PUT /api/customers/{id}
func (h *Handlers) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var patch domain.CustomerPatch
	if !httputil.Decode(w, r, &patch) {
		return
	}
	c, err := h.Customers.Update(r.Context(), urlParam(r, "id"), customer.UpdateFields(patch))
	metrics.RecordMutation("customers", "update", err)
	if err != nil {
		respondServiceError(w, err, "update customer")
		return
	}
	httputil.OK(w, c)
}

// DELETE /api/customers/{id}
func (h *Handlers) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	err := h.Customers.Delete(r.Context(), urlParam(r, "id"))
	metrics.RecordMutation("customers", "delete", err)
	if err != nil {
		respondServiceError(w, err, "delete customer")
		return
	}
	httputil.NoContent(w)
}

// POST /api/customers/{id}/vouchers
func (h *Handlers) grantVoucher(w http.ResponseWriter, r *http.Request) {
	var in domain.GrantVoucherInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	v, err := h.Customers.GrantVoucher(r.Context(), urlParam(r, "id"), in, actorFrom(r))
	metrics.RecordMutation("customers", "grant", err)
	if err != nil {
		respondServiceError(w, err, "grant voucher")
		return
	}
	httputil.Created(w, v)
}
