// Package app wires repositories, services and the HTTP API together. It is
// shared by cmd/server and by the console's in-process mock mode.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/voucher-console/internal/api"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/ignite/voucher-console/internal/repository/postgres"
	"github.com/ignite/voucher-console/internal/service/campaign"
	"github.com/ignite/voucher-console/internal/service/customer"
	"github.com/ignite/voucher-console/internal/service/user"
	"github.com/ignite/voucher-console/internal/service/voucher"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
	"github.com/jmoiron/sqlx"
)

// MockSecret signs tokens of the in-process mock backend.
const MockSecret = "voucher-console-mock-secret"

// Repos holds one repository per service.
type Repos struct {
	Campaigns campaign.Repository
	Vouchers  voucher.Repository
	Customers customer.Repository
	Logs      voucherlog.Repository
	Users     user.Repository
}

// MemoryRepos returns the repositories of an in-memory database.
func MemoryRepos(db *memory.DB) Repos {
	return Repos{
		Campaigns: db.Campaigns(),
		Vouchers:  db.Vouchers(),
		Customers: db.Customers(),
		Logs:      db.Logs(),
		Users:     db.Users(),
	}
}

// PostgresRepos returns the PostgreSQL repositories.
func PostgresRepos(db *sqlx.DB) Repos {
	return Repos{
		Campaigns: postgres.NewCampaignRepo(db),
		Vouchers:  postgres.NewVoucherRepo(db),
		Customers: postgres.NewCustomerRepo(db),
		Logs:      postgres.NewLogRepo(db),
		Users:     postgres.NewUserRepo(db),
	}
}

// Options holds the optional collaborators of the services. Nil fields are
// left unset.
type Options struct {
	Tokens      user.TokenIssuer
	Publisher   voucherlog.Publisher
	Deliverer   customer.Deliverer
	Images      voucher.ImageStore
	CodeSecret  string
	DefaultRole domain.Role
	Now         func() time.Time
}

// Services is the set of backend services.
type Services struct {
	Campaigns *campaign.Service
	Vouchers  *voucher.Service
	Customers *customer.Service
	Logs      *voucherlog.Service
	Users     *user.Service
}

// NewServices builds the services over r.
func NewServices(r Repos, o Options) *Services {
	logs := voucherlog.NewService(r.Logs, o.Publisher)
	campaigns := campaign.NewService(r.Campaigns)
	vouchers := voucher.NewService(r.Vouchers, campaigns, logs, voucher.NewCodeGenerator(o.CodeSecret))
	campaigns.SetIssuer(vouchers)
	customers := customer.NewService(r.Customers, vouchers)
	users := user.NewService(r.Users, o.Tokens)

	if o.Deliverer != nil {
		customers.SetDeliverer(o.Deliverer)
	}
	if o.Images != nil {
		vouchers.SetImageStore(o.Images)
	}
	if o.DefaultRole != nil {
		users.SetDefaultRole(o.DefaultRole)
	}
	if o.Now != nil {
		logs.SetClock(o.Now)
		campaigns.SetClock(o.Now)
		vouchers.SetClock(o.Now)
		customers.SetClock(o.Now)
		users.SetClock(o.Now)
	}
	return &Services{
		Campaigns: campaigns,
		Vouchers:  vouchers,
		Customers: customers,
		Logs:      logs,
		Users:     users,
	}
}

// Handlers binds the services to the HTTP API.
func (s *Services) Handlers(m *auth.Manager, limiter *auth.LoginLimiter, health *api.HealthChecker) *api.Handlers {
	return &api.Handlers{
		Campaigns: s.Campaigns,
		Vouchers:  s.Vouchers,
		Customers: s.Customers,
		Logs:      s.Logs,
		Users:     s.Users,
		Auth:      m,
		Limiter:   limiter,
		Health:    health,
	}
}

// NewMockHandler returns the full HTTP API over freshly seeded in-memory
// data. Every seeded account logs in with memory.DemoPassword.
func NewMockHandler(now time.Time) (http.Handler, *Services, error) {
	db := memory.New()
	if err := memory.Seed(db, now); err != nil {
		return nil, nil, fmt.Errorf("seed mock data: %w", err)
	}
	m := auth.NewManager(MockSecret, 12*time.Hour)
	svc := NewServices(MemoryRepos(db), Options{Tokens: m})
	return api.NewRouter(svc.Handlers(m, nil, nil), nil), svc, nil
}
