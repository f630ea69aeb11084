package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/metrics"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/service/campaign"
	"github.com/ignite/voucher-console/internal/service/customer"
	"github.com/ignite/voucher-console/internal/service/user"
	"github.com/ignite/voucher-console/internal/service/voucher"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	Campaigns *campaign.Service
	Vouchers  *voucher.Service
	Customers *customer.Service
	Logs      *voucherlog.Service
	Users     *user.Service
	Auth      *auth.Manager
	Limiter   *auth.LoginLimiter
	Health    *HealthChecker
}

// NewRouter configures all API routes.
func NewRouter(h *Handlers, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	if h.Health == nil {
		h.Health = NewHealthChecker(nil, nil, nil)
	}
	if h.Limiter == nil {
		h.Limiter = auth.NewLoginLimiter(0, 0)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Channel"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics (no auth required)
	r.Get("/health", h.Health.HandleHealth)
	r.Get("/health/live", h.Health.HandleLiveness)
	r.Get("/health/ready", h.Health.HandleReadiness)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/register", h.register)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.Auth.Middleware)
		r.Use(auth.Require(domain.CapRead))

		manageCampaigns := auth.Require(domain.CapManageCampaigns)
		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.listCampaigns)
			r.Get("/stats", h.campaignStats)
			r.With(manageCampaigns).Post("/", h.createCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getCampaign)
				r.With(manageCampaigns).Put("/", h.updateCampaign)
				r.With(manageCampaigns).Patch("/", h.updateCampaign)
				r.With(manageCampaigns).Delete("/", h.deleteCampaign)
				r.With(auth.Require(domain.CapManageVouchers)).Post("/issue", h.issueCampaign)
			})
		})

		manageVouchers := auth.Require(domain.CapManageVouchers)
		redeem := auth.Require(domain.CapRedeemVouchers)
		r.Route("/vouchers", func(r chi.Router) {
			r.Get("/", h.listVouchers)
			r.Get("/stats", h.voucherStats)
			r.With(manageVouchers).Post("/", h.createVoucher)
			r.With(manageVouchers).Post("/bulk", h.bulkCreateVouchers)
			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", h.getVoucher)
				r.Get("/qr", h.voucherQR)
				r.With(manageVouchers).Put("/", h.updateVoucher)
				r.With(manageVouchers).Patch("/", h.updateVoucher)
				r.With(manageVouchers).Delete("/", h.deactivateVoucher)
				r.With(redeem).Post("/redeem", h.redeemVoucher)
				r.With(redeem).Post("/scan", h.scanVoucher)
			})
		})

		manageCustomers := auth.Require(domain.CapManageCustomers)
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Get("/stats", h.customerStats)
			r.With(manageCustomers).Post("/", h.createCustomer)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getCustomer)
				r.Get("/vouchers", h.customerVouchers)
				r.With(manageCustomers).Put("/", h.updateCustomer)
				r.With(manageCustomers).Patch("/", h.updateCustomer)
				r.With(manageCustomers).Delete("/", h.deleteCustomer)
				r.With(manageCustomers).Post("/vouchers", h.grantVoucher)
			})
		})

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", h.listLogs)
			r.Get("/stats", h.logStats)
			r.Get("/{id}", h.getLog)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.Require(domain.CapManageUsers))
			r.Get("/", h.listUsers)
			r.Put("/{id}/role", h.setUserRole)
		})
	})

	return r
}

// requestLogger writes one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.Info("[api] request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
