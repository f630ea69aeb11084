package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
)

const dateLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// VoucherTable is the column set of a voucher export.
var VoucherTable = Table[domain.Voucher]{
	{"Code", func(v domain.Voucher) string { return v.Code }},
	{"Campaign", func(v domain.Voucher) string { return v.CampaignID }},
	{"Customer", func(v domain.Voucher) string { return deref(v.CustomerID) }},
	{"Status", func(v domain.Voucher) string { return string(v.Status) }},
	{"Value", func(v domain.Voucher) string { return money(v.Value) }},
	{"Expires At", func(v domain.Voucher) string { return formatTimePtr(v.ExpiresAt) }},
	{"Used At", func(v domain.Voucher) string { return formatTimePtr(v.UsedAt) }},
	{"Order ID", func(v domain.Voucher) string { return deref(v.OrderID) }},
	{"Created At", func(v domain.Voucher) string { return formatTime(v.CreatedAt) }},
}

// CampaignTable is the column set of a campaign export.
var CampaignTable = Table[domain.Campaign]{
	{"ID", func(c domain.Campaign) string { return c.ID }},
	{"Name", func(c domain.Campaign) string { return c.Name }},
	{"Status", func(c domain.Campaign) string { return string(c.Status) }},
	{"Start Date", func(c domain.Campaign) string { return c.StartDate.UTC().Format("2006-01-02") }},
	{"End Date", func(c domain.Campaign) string { return c.EndDate.UTC().Format("2006-01-02") }},
	{"Total Vouchers", func(c domain.Campaign) string { return strconv.Itoa(c.TotalVouchers) }},
	{"Issued", func(c domain.Campaign) string { return strconv.Itoa(c.IssuedCount) }},
	{"Redeemed", func(c domain.Campaign) string { return strconv.Itoa(c.RedeemedCount) }},
	{"Voucher Value", func(c domain.Campaign) string { return money(c.VoucherValue) }},
	{"Channels", func(c domain.Campaign) string { return strings.Join(c.Channels, ", ") }},
}

// CustomerTable is the column set of a customer export.
var CustomerTable = Table[domain.Customer]{
	{"ID", func(c domain.Customer) string { return c.ID }},
	{"Name", func(c domain.Customer) string { return c.Name }},
	{"Phone", func(c domain.Customer) string { return c.Phone }},
	{"Email", func(c domain.Customer) string { return c.Email }},
	{"Status", func(c domain.Customer) string { return string(c.Status) }},
	{"Tags", func(c domain.Customer) string { return strings.Join(c.Tags, ", ") }},
	{"Vouchers", func(c domain.Customer) string { return strconv.Itoa(c.TotalVouchers) }},
	{"Used", func(c domain.Customer) string { return strconv.Itoa(c.UsedVouchers) }},
	{"Revenue", func(c domain.Customer) string { return money(c.Revenue) }},
	{"Notes", func(c domain.Customer) string { return c.Notes }},
}

// LogTable is the column set of a voucher log export.
var LogTable = Table[domain.VoucherLog]{
	{"Time", func(l domain.VoucherLog) string { return formatTime(l.CreatedAt) }},
	{"Voucher", func(l domain.VoucherLog) string { return l.VoucherCode }},
	{"Action", func(l domain.VoucherLog) string { return string(l.Action) }},
	{"Actor", func(l domain.VoucherLog) string { return l.Actor }},
	{"Channel", func(l domain.VoucherLog) string { return l.Channel }},
	{"IP Address", func(l domain.VoucherLog) string { return l.IPAddress }},
	{"Note", func(l domain.VoucherLog) string { return l.Note }},
}
