package domain

import (
	"net/url"
	"strconv"
	"time"
)

// VoucherFilter narrows a voucher listing.
type VoucherFilter struct {
	Status     VoucherStatus `json:"status,omitempty"`
	CampaignID string        `json:"campaign_id,omitempty"`
	CustomerID string        `json:"customer_id,omitempty"`
	Search     string        `json:"search,omitempty"`
	Page       int           `json:"page,omitempty"`
	Limit      int           `json:"limit,omitempty"`
}

// Values encodes the filter as query parameters.
func (f VoucherFilter) Values() url.Values {
	v := url.Values{}
	set(v, "status", string(f.Status))
	set(v, "campaign_id", f.CampaignID)
	set(v, "customer_id", f.CustomerID)
	set(v, "search", f.Search)
	setPage(v, f.Page, f.Limit)
	return v
}

// CampaignFilter narrows a campaign listing.
type CampaignFilter struct {
	Status CampaignStatus `json:"status,omitempty"`
	Search string         `json:"search,omitempty"`
	Page   int            `json:"page,omitempty"`
	Limit  int            `json:"limit,omitempty"`
}

// Values encodes the filter as query parameters.
func (f CampaignFilter) Values() url.Values {
	v := url.Values{}
	set(v, "status", string(f.Status))
	set(v, "search", f.Search)
	setPage(v, f.Page, f.Limit)
	return v
}

// CustomerFilter narrows a customer listing.
type CustomerFilter struct {
	Status CustomerStatus `json:"status,omitempty"`
	Tag    string         `json:"tag,omitempty"`
	Search string         `json:"search,omitempty"`
	Page   int            `json:"page,omitempty"`
	Limit  int            `json:"limit,omitempty"`
}

// Values encodes the filter as query parameters.
func (f CustomerFilter) Values() url.Values {
	v := url.Values{}
	set(v, "status", string(f.Status))
	set(v, "tag", f.Tag)
	set(v, "search", f.Search)
	setPage(v, f.Page, f.Limit)
	return v
}

// LogFilter narrows an audit log listing.
type LogFilter struct {
	VoucherCode string     `json:"voucher_code,omitempty"`
	Action      LogAction  `json:"action,omitempty"`
	Actor       string     `json:"actor,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Page        int        `json:"page,omitempty"`
	Limit       int        `json:"limit,omitempty"`
}

// Values encodes the filter as query parameters.
func (f LogFilter) Values() url.Values {
	v := url.Values{}
	set(v, "voucher_code", f.VoucherCode)
	set(v, "action", string(f.Action))
	set(v, "actor", f.Actor)
	if f.From != nil {
		v.Set("from", f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		v.Set("to", f.To.UTC().Format(time.RFC3339))
	}
	setPage(v, f.Page, f.Limit)
	return v
}

func set(v url.Values, k, val string) {
	if val != "" {
		v.Set(k, val)
	}
}

func setPage(v url.Values, page, limit int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}
