package domain

import (
	"time"
)

// VoucherStatus enumerates the lifecycle states of a voucher.
type VoucherStatus string

const (
	VoucherScheduled VoucherStatus = "scheduled"
	VoucherActive    VoucherStatus = "active"
	VoucherUsed      VoucherStatus = "used"
	VoucherExpired   VoucherStatus = "expired"
	VoucherInactive  VoucherStatus = "inactive"
)

// VoucherStatuses lists every status in display order.
var VoucherStatuses = []VoucherStatus{
	VoucherScheduled, VoucherActive, VoucherUsed, VoucherExpired, VoucherInactive,
}

var voucherTransitions = map[VoucherStatus][]VoucherStatus{
	VoucherScheduled: {VoucherActive, VoucherInactive, VoucherExpired},
	VoucherActive:    {VoucherUsed, VoucherExpired, VoucherInactive},
	VoucherInactive:  {VoucherActive, VoucherExpired},
}

// Valid reports whether s is a known status.
func (s VoucherStatus) Valid() bool {
	for _, v := range VoucherStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses that admit no further transition.
func (s VoucherStatus) IsTerminal() bool {
	return s == VoucherUsed || s == VoucherExpired
}

// CanTransition reports whether a voucher may move from s to next.
// Re-applying the current status is always allowed.
func (s VoucherStatus) CanTransition(next VoucherStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range voucherTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Voucher is a redeemable code belonging to a campaign, optionally assigned
// to a customer. The code is the voucher's identity.
type Voucher struct {
	Code       string        `json:"code" db:"code"`
	CampaignID string        `json:"campaign_id" db:"campaign_id"`
	CustomerID *string       `json:"customer_id,omitempty" db:"customer_id"`
	Status     VoucherStatus `json:"status" db:"status"`
	Value      float64       `json:"value" db:"value"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty" db:"expires_at"`
	UsedAt     *time.Time    `json:"used_at,omitempty" db:"used_at"`
	OrderID    *string       `json:"order_id,omitempty" db:"order_id"`
	QRPayload  string        `json:"qr_payload" db:"qr_payload"`
	QRImageURL string        `json:"qr_image_url,omitempty" db:"qr_image_url"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// IsExpiredAt reports whether the voucher's expiry has passed at now.
func (v Voucher) IsExpiredAt(now time.Time) bool {
	return v.ExpiresAt != nil && !v.ExpiresAt.After(now)
}

// QRContent is the text encoded into the voucher's QR image.
func (v Voucher) QRContent() string {
	if v.QRPayload != "" {
		return v.QRPayload
	}
	return v.Code
}

// VoucherInput holds the fields for creating a single voucher.
type VoucherInput struct {
	Code       string     `json:"code,omitempty"`
	CampaignID string     `json:"campaign_id" validate:"required"`
	CustomerID string     `json:"customer_id,omitempty"`
	Value      float64    `json:"value" validate:"gte=0"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// BulkVoucherInput asks the backend to generate Count codes for a campaign.
type BulkVoucherInput struct {
	CampaignID string     `json:"campaign_id" validate:"required"`
	Count      int        `json:"count" validate:"gt=0,lte=10000"`
	Prefix     string     `json:"prefix,omitempty" validate:"omitempty,alphanum,max=8"`
	Value      float64    `json:"value" validate:"gte=0"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// BulkVoucherResult reports the outcome of a bulk generation.
type BulkVoucherResult struct {
	CampaignID string   `json:"campaign_id"`
	Created    int      `json:"created"`
	Codes      []string `json:"codes"`
}

// VoucherPatch holds the mutable fields of a voucher. Nil fields are left
// untouched.
type VoucherPatch struct {
	Status     *VoucherStatus `json:"status,omitempty"`
	CustomerID *string        `json:"customer_id,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	Value      *float64       `json:"value,omitempty"`
}

// Apply returns a copy of v with the patch applied.
func (p VoucherPatch) Apply(v Voucher) Voucher {
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.CustomerID != nil {
		id := *p.CustomerID
		v.CustomerID = &id
	}
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		v.ExpiresAt = &t
	}
	if p.Value != nil {
		v.Value = *p.Value
	}
	return v
}

// RedeemInput records a voucher redemption against an order.
type RedeemInput struct {
	OrderID string `json:"order_id" validate:"required"`
	Channel string `json:"channel,omitempty"`
}
