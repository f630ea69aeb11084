package domain

// VoucherStats aggregates vouchers by status.
type VoucherStats struct {
	Total          int     `json:"total"`
	Scheduled      int     `json:"scheduled"`
	Active         int     `json:"active"`
	Used           int     `json:"used"`
	Expired        int     `json:"expired"`
	Inactive       int     `json:"inactive"`
	TotalValue     float64 `json:"total_value"`
	RedeemedValue  float64 `json:"redeemed_value"`
	RedemptionRate float64 `json:"redemption_rate"`
}

// Add counts one voucher into the aggregate.
func (s *VoucherStats) Add(v Voucher) {
	s.Total++
	s.TotalValue += v.Value
	switch v.Status {
	case VoucherScheduled:
		s.Scheduled++
	case VoucherActive:
		s.Active++
	case VoucherUsed:
		s.Used++
		s.RedeemedValue += v.Value
	case VoucherExpired:
		s.Expired++
	case VoucherInactive:
		s.Inactive++
	}
	s.RedemptionRate = Rate(s.Used, s.Total)
}

// CampaignStats aggregates campaigns by status.
type CampaignStats struct {
	Total         int     `json:"total"`
	Draft         int     `json:"draft"`
	Active        int     `json:"active"`
	Inactive      int     `json:"inactive"`
	Expired       int     `json:"expired"`
	TotalVouchers int     `json:"total_vouchers"`
	IssuedCount   int     `json:"issued_count"`
	RedeemedCount int     `json:"redeemed_count"`
	TotalValue    float64 `json:"total_value"`
}

// Add counts one campaign into the aggregate.
func (s *CampaignStats) Add(c Campaign) {
	s.Total++
	s.TotalVouchers += c.TotalVouchers
	s.IssuedCount += c.IssuedCount
	s.RedeemedCount += c.RedeemedCount
	s.TotalValue += float64(c.TotalVouchers) * c.VoucherValue
	switch c.Status {
	case CampaignDraft:
		s.Draft++
	case CampaignActive:
		s.Active++
	case CampaignInactive:
		s.Inactive++
	case CampaignExpired:
		s.Expired++
	}
}

// CustomerStats aggregates customers.
type CustomerStats struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Inactive       int     `json:"inactive"`
	VouchersIssued int     `json:"vouchers_issued"`
	VouchersUsed   int     `json:"vouchers_used"`
	TotalRevenue   float64 `json:"total_revenue"`
}

// Add counts one customer into the aggregate.
func (s *CustomerStats) Add(c Customer) {
	s.Total++
	if c.Status == CustomerInactive {
		s.Inactive++
	} else {
		s.Active++
	}
	s.VouchersIssued += c.TotalVouchers
	s.VouchersUsed += c.UsedVouchers
	s.TotalRevenue += c.Revenue
}

// LogStats aggregates audit entries.
type LogStats struct {
	Total       int               `json:"total"`
	ByAction    map[LogAction]int `json:"by_action"`
	Last24Hours int               `json:"last_24_hours"`
}

// Rate returns part/total, or 0 when total is zero.
func Rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
