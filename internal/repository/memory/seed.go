package memory

import (
	"fmt"
	"time"

	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "voucher-demo"

type seedCampaign struct {
	id, name, desc string
	startDays      int
	endDays        int
	total          int
	value          float64
	status         domain.CampaignStatus
	channels       []string
	prefix         string
}

var seedCampaigns = []seedCampaign{
	{"cmp-spring", "Spring Sale", "Seasonal discount for returning customers", -30, 30, 200, 10,
		domain.CampaignActive, []string{domain.ChannelSMS, domain.ChannelEmail}, "SPRING"},
	{"cmp-welcome", "Welcome Bonus", "First purchase voucher for new sign-ups", -90, 275, 1000, 5,
		domain.CampaignActive, []string{domain.ChannelInApp, domain.ChannelEmail}, "WELCOME"},
	{"cmp-winter", "Winter Clearance", "End of season clearance", -200, -20, 100, 25,
		domain.CampaignExpired, []string{domain.ChannelPrint}, "WINTER"},
	{"cmp-loyalty", "Loyalty Rewards", "Quarterly reward for loyal customers", 10, 100, 50, 50,
		domain.CampaignDraft, []string{domain.ChannelWallet}, "LOYAL"},
}

type seedCustomer struct {
	id, name, phone, email string
	tags                   []string
}

var seedCustomers = []seedCustomer{
	{"cus-1", "Amelia Hart", "+15550100001", "amelia@example.com", []string{"vip"}},
	{"cus-2", "Bruno Diaz", "+15550100002", "bruno@example.com", nil},
	{"cus-3", "Chen Wei", "+15550100003", "", []string{"wholesale"}},
	{"cus-4", "Dana Okafor", "+15550100004", "dana@example.com", []string{"vip", "newsletter"}},
	{"cus-5", "Emil Novak", "+15550100005", "emil@example.com", nil},
}

// Seed fills db with mock campaigns, customers, vouchers, logs and one
// account per role. Timestamps are relative to now.
func Seed(db *DB, now time.Time) error {
	now = now.UTC().Truncate(time.Second)
	day := 24 * time.Hour

	db.mu.Lock()
	defer db.mu.Unlock()

	for i, sc := range seedCampaigns {
		created := now.Add(time.Duration(sc.startDays-7)*day + time.Duration(i)*time.Minute)
		db.campaigns[sc.id] = domain.Campaign{
			ID:            sc.id,
			Name:          sc.name,
			Description:   sc.desc,
			StartDate:     now.Add(time.Duration(sc.startDays) * day),
			EndDate:       now.Add(time.Duration(sc.endDays) * day),
			TotalVouchers: sc.total,
			VoucherValue:  sc.value,
			Status:        sc.status,
			Channels:      sc.channels,
			CreatedAt:     created,
			UpdatedAt:     created,
		}
	}

	for i, sc := range seedCustomers {
		created := now.Add(-time.Duration(60-i) * day)
		db.customers[sc.id] = domain.Customer{
			ID:        sc.id,
			Name:      sc.name,
			Phone:     sc.phone,
			Email:     sc.email,
			Tags:      cloneStrings(sc.tags),
			Status:    domain.CustomerActive,
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	n := 0
	for _, sc := range seedCampaigns {
		if sc.status == domain.CampaignDraft {
			continue
		}
		c := db.campaigns[sc.id]
		for i := 1; i <= 6; i++ {
			n++
			created := c.StartDate.Add(time.Duration(i) * time.Hour)
			expires := c.EndDate
			v := domain.Voucher{
				Code:       fmt.Sprintf("%s-%04d", sc.prefix, i),
				CampaignID: c.ID,
				Status:     domain.VoucherActive,
				Value:      c.VoucherValue,
				ExpiresAt:  &expires,
				CreatedAt:  created,
				UpdatedAt:  created,
			}
			v.QRPayload = v.Code
			if i <= len(seedCustomers) && i%2 == 1 {
				id := seedCustomers[(n-1)%len(seedCustomers)].id
				v.CustomerID = &id
			}
			switch {
			case c.Status == domain.CampaignExpired && i > 2:
				v.Status = domain.VoucherExpired
			case i == 1 || i == 4:
				used := created.Add(48 * time.Hour)
				order := fmt.Sprintf("ORD-%05d", 1000+n)
				v.Status, v.UsedAt, v.OrderID = domain.VoucherUsed, &used, &order
			case i == 6:
				v.Status = domain.VoucherInactive
			}
			db.vouchers[v.Code] = v
			db.logs = append(db.logs, seedLogs(v, n)...)
		}
	}

	roles := []domain.Role{domain.Admin{}, domain.Manager{}, domain.Operator{}, domain.Viewer{}}
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	for i, r := range roles {
		u := domain.User{
			ID:        "usr-" + r.Name(),
			Username:  r.Name(),
			Email:     r.Name() + "@voucher.local",
			Name:      "Demo " + r.Name(),
			RoleName:  r.Name(),
			Active:    true,
			CreatedAt: now.Add(-time.Duration(len(roles)-i) * day),
		}
		db.users[u.ID] = userRecord{user: u, hash: hash}
	}
	return nil
}

func seedLogs(v domain.Voucher, n int) []domain.VoucherLog {
	logs := []domain.VoucherLog{{
		ID:          fmt.Sprintf("log-%04d-a", n),
		VoucherCode: v.Code,
		Action:      domain.ActionCreated,
		Actor:       "admin",
		Channel:     "console",
		CreatedAt:   v.CreatedAt,
	}}
	switch v.Status {
	case domain.VoucherUsed:
		logs = append(logs,
			domain.VoucherLog{ID: fmt.Sprintf("log-%04d-b", n), VoucherCode: v.Code, Action: domain.ActionScanned,
				Actor: "operator", Channel: "pos", CreatedAt: v.UsedAt.Add(-time.Minute)},
			domain.VoucherLog{ID: fmt.Sprintf("log-%04d-c", n), VoucherCode: v.Code, Action: domain.ActionRedeem,
				Actor: "operator", Channel: "pos", Note: "order " + *v.OrderID, CreatedAt: *v.UsedAt})
	case domain.VoucherExpired:
		logs = append(logs, domain.VoucherLog{ID: fmt.Sprintf("log-%04d-b", n), VoucherCode: v.Code,
			Action: domain.ActionExpired, Actor: "system", Channel: "scheduler", CreatedAt: *v.ExpiresAt})
	case domain.VoucherInactive:
		logs = append(logs, domain.VoucherLog{ID: fmt.Sprintf("log-%04d-b", n), VoucherCode: v.Code,
			Action: domain.ActionDeactivated, Actor: "manager", Channel: "console", CreatedAt: v.CreatedAt.Add(time.Hour)})
	}
	return logs
}
