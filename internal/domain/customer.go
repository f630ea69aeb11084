package domain

import "time"

// CustomerStatus enumerates customer account states.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// Customer is a voucher recipient.
type Customer struct {
	ID     string         `json:"id" db:"id"`
	Name   string         `json:"name" db:"name"`
	Phone  string         `json:"phone" db:"phone"`
	Email  string         `json:"email" db:"email"`
	Tags   []string       `json:"tags" db:"tags"`
	Status CustomerStatus `json:"status" db:"status"`
	Notes  string         `json:"notes" db:"notes"`

	// Stats (read-only, populated by queries)
	TotalVouchers int     `json:"total_vouchers" db:"total_vouchers"`
	UsedVouchers  int     `json:"used_vouchers" db:"used_vouchers"`
	Revenue       float64 `json:"revenue" db:"revenue"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RemainingVouchers is the number of assigned vouchers not yet used.
func (c Customer) RemainingVouchers() int {
	if n := c.TotalVouchers - c.UsedVouchers; n > 0 {
		return n
	}
	return 0
}

// HasTag reports whether the customer carries tag.
func (c Customer) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CustomerInput holds the fields for creating a customer.
type CustomerInput struct {
	Name  string   `json:"name" validate:"required,max=200"`
	Phone string   `json:"phone" validate:"required,e164"`
	Email string   `json:"email" validate:"omitempty,email"`
	Tags  []string `json:"tags"`
	Notes string   `json:"notes" validate:"max=2000"`
}

// CustomerPatch holds the mutable fields of a customer. Nil fields are left
// untouched.
type CustomerPatch struct {
	Name   *string         `json:"name,omitempty"`
	Phone  *string         `json:"phone,omitempty"`
	Email  *string         `json:"email,omitempty"`
	Tags   []string        `json:"tags,omitempty"`
	Status *CustomerStatus `json:"status,omitempty"`
	Notes  *string         `json:"notes,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p CustomerPatch) Apply(c Customer) Customer {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	return c
}

// GrantVoucherInput assigns a freshly generated voucher to a customer.
type GrantVoucherInput struct {
	CampaignID string     `json:"campaign_id" validate:"required"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Channel    string     `json:"channel,omitempty" validate:"omitempty,oneof=sms email"`
}
