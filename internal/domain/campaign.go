package domain

import (
	"errors"
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft    CampaignStatus = "draft"
	CampaignActive   CampaignStatus = "active"
	CampaignInactive CampaignStatus = "inactive"
	CampaignExpired  CampaignStatus = "expired"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignInactive, CampaignExpired:
		return true
	}
	return false
}

// Distribution channels a campaign may use.
const (
	ChannelSMS    = "sms"
	ChannelEmail  = "email"
	ChannelPrint  = "print"
	ChannelInApp  = "in_app"
	ChannelWallet = "wallet"
)

// Campaign groups vouchers issued under a common time window, value and set
// of distribution channels.
type Campaign struct {
	ID            string         `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description" db:"description"`
	StartDate     time.Time      `json:"start_date" db:"start_date"`
	EndDate       time.Time      `json:"end_date" db:"end_date"`
	TotalVouchers int            `json:"total_vouchers" db:"total_vouchers"`
	VoucherValue  float64        `json:"voucher_value" db:"voucher_value"`
	Status        CampaignStatus `json:"status" db:"status"`
	Channels      []string       `json:"channels" db:"channels"`

	// Stats (read-only, populated by queries)
	IssuedCount   int `json:"issued_count" db:"issued_count"`
	RedeemedCount int `json:"redeemed_count" db:"redeemed_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Remaining is the number of vouchers that may still be issued.
func (c Campaign) Remaining() int {
	if n := c.TotalVouchers - c.IssuedCount; n > 0 {
		return n
	}
	return 0
}

// IsRunningAt reports whether the campaign is active and within its window.
func (c Campaign) IsRunningAt(now time.Time) bool {
	return c.Status == CampaignActive && !now.Before(c.StartDate) && now.Before(c.EndDate)
}

// Validate checks the campaign's invariants.
func (c Campaign) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.EndDate.Before(c.StartDate) {
		return errors.New("end date must not precede start date")
	}
	if c.TotalVouchers < 0 {
		return errors.New("total vouchers must not be negative")
	}
	if c.VoucherValue < 0 {
		return errors.New("voucher value must not be negative")
	}
	if !c.Status.Valid() {
		return errors.New("unknown status " + string(c.Status))
	}
	return nil
}

// CampaignInput holds the fields for creating a campaign.
type CampaignInput struct {
	Name          string    `json:"name" validate:"required,max=200"`
	Description   string    `json:"description" validate:"max=2000"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	TotalVouchers int       `json:"total_vouchers" validate:"gte=0"`
	VoucherValue  float64   `json:"voucher_value" validate:"gte=0"`
	Channels      []string  `json:"channels" validate:"dive,oneof=sms email print in_app wallet"`
}

// CampaignPatch holds the mutable fields of a campaign. Nil fields are left
// untouched.
type CampaignPatch struct {
	Name          *string         `json:"name,omitempty"`
	Description   *string         `json:"description,omitempty"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	TotalVouchers *int            `json:"total_vouchers,omitempty"`
	VoucherValue  *float64        `json:"voucher_value,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	Channels      []string        `json:"channels,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p CampaignPatch) Apply(c Campaign) Campaign {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}
	if p.TotalVouchers != nil {
		c.TotalVouchers = *p.TotalVouchers
	}
	if p.VoucherValue != nil {
		c.VoucherValue = *p.VoucherValue
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Channels != nil {
		c.Channels = append([]string(nil), p.Channels...)
	}
	return c
}

// IssueInput asks the backend to issue vouchers under a campaign.
type IssueInput struct {
	Count     int        `json:"count" validate:"gt=0,lte=10000"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
