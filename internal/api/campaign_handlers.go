package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/metrics"
	"github.com/ignite/voucher-console/internal/pkg/httputil"
	"github.com/ignite/voucher-console/internal/service/campaign"
)

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// GET /api/campaigns
func (h *Handlers) listCampaigns(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	q := r.URL.Query()
	items, total, err := h.Campaigns.List(r.Context(), campaign.ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  p.Limit,
		Offset: p.Offset(),
	})
	if err != nil {
		respondServiceError(w, err, "list campaigns")
		return
	}
	httputil.OK(w, newPage(items, p, total))
}

// GET /api/campaigns/stats
func (h *Handlers) campaignStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Campaigns.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err, "campaign stats")
		return
	}
	httputil.OK(w, st)
}

// GET /api/campaigns/{id}
func (h *Handlers) getCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.Campaigns.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "get campaign")
		return
	}
	httputil.OK(w, c)
}

// POST /api/campaigns
func (h *Handlers) createCampaign(w http.ResponseWriter, r *http.Request) {
	var in domain.CampaignInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.Campaigns.Create(r.Context(), in)
	metrics.RecordMutation("campaigns", "create", err)
	if err != nil {
		respondServiceError(w, err, "create campaign")
		return
	}
	httputil.Created(w, c)
}

// PUT /api/campaigns/{id}
func (h *Handlers) updateCampaign(w http.ResponseWriter, r *http.Request) {
	var patch domain.CampaignPatch
	if !httputil.Decode(w, r, &patch) {
		return
	}
	c, err := h.Campaigns.Update(r.Context(), urlParam(r, "id"), campaign.UpdateFields(patch))
	metrics.RecordMutation("campaigns", "update", err)
	if err != nil {
		respondServiceError(w, err, "update campaign")
		return
	}
	httputil.OK(w, c)
}

// DELETE /api/campaigns/{id}
func (h *Handlers) deleteCampaign(w http.ResponseWriter, r *http.Request) {
	err := h.Campaigns.Delete(r.Context(), urlParam(r, "id"))
	metrics.RecordMutation("campaigns", "delete", err)
	if err != nil {
		respondServiceError(w, err, "delete campaign")
		return
	}
	httputil.NoContent(w)
}

// POST /api/campaigns/{id}/issue
func (h *Handlers) issueCampaign(w http.ResponseWriter, r *http.Request) {
	var in domain.IssueInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	res, err := h.Campaigns.Issue(r.Context(), urlParam(r, "id"), in, actorFrom(r))
	metrics.RecordMutation("campaigns", "issue", err)
	if err != nil {
		respondServiceError(w, err, "issue vouchers")
		return
	}
	httputil.Created(w, res)
}
