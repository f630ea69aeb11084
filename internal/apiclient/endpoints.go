package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ignite/voucher-console/internal/domain"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, cr domain.Credentials) (domain.AuthToken, error) {
	return call[domain.AuthToken](ctx, c, http.MethodPost, "/auth/login", nil, cr)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	return call[domain.User](ctx, c, http.MethodPost, "/auth/register", nil, reg)
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

// Me returns the profile of the token's user.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	return call[domain.User](ctx, c, http.MethodGet, "/auth/me", nil, nil)
}

// Campaigns

func (c *Client) ListCampaigns(ctx context.Context, f domain.CampaignFilter) (domain.Page[domain.Campaign], error) {
	return call[domain.Page[domain.Campaign]](ctx, c, http.MethodGet, "/api/campaigns", f.Values(), nil)
}

func (c *Client) GetCampaign(ctx context.Context, id string) (domain.Campaign, error) {
	return call[domain.Campaign](ctx, c, http.MethodGet, "/api/campaigns/"+escape(id), nil, nil)
}

func (c *Client) CreateCampaign(ctx context.Context, in domain.CampaignInput) (domain.Campaign, error) {
	return call[domain.Campaign](ctx, c, http.MethodPost, "/api/campaigns", nil, in)
}

func (c *Client) UpdateCampaign(ctx context.Context, id string, p domain.CampaignPatch) (domain.Campaign, error) {
	return call[domain.Campaign](ctx, c, http.MethodPatch, "/api/campaigns/"+escape(id), nil, p)
}

func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/api/campaigns/"+escape(id), nil, nil)
	return err
}

func (c *Client) CampaignStats(ctx context.Context) (domain.CampaignStats, error) {
	return call[domain.CampaignStats](ctx, c, http.MethodGet, "/api/campaigns/stats", nil, nil)
}

// IssueVouchers generates vouchers under a campaign.
func (c *Client) IssueVouchers(ctx context.Context, id string, in domain.IssueInput) (domain.BulkVoucherResult, error) {
	return call[domain.BulkVoucherResult](ctx, c, http.MethodPost, "/api/campaigns/"+escape(id)+"/issue", nil, in)
}

// Vouchers

func (c *Client) ListVouchers(ctx context.Context, f domain.VoucherFilter) (domain.Page[domain.Voucher], error) {
	return call[domain.Page[domain.Voucher]](ctx, c, http.MethodGet, "/api/vouchers", f.Values(), nil)
}

func (c *Client) GetVoucher(ctx context.Context, code string) (domain.Voucher, error) {
	return call[domain.Voucher](ctx, c, http.MethodGet, "/api/vouchers/"+escape(code), nil, nil)
}

func (c *Client) CreateVoucher(ctx context.Context, in domain.VoucherInput) (domain.Voucher, error) {
	return call[domain.Voucher](ctx, c, http.MethodPost, "/api/vouchers", nil, in)
}

func (c *Client) BulkCreateVouchers(ctx context.Context, in domain.BulkVoucherInput) (domain.BulkVoucherResult, error) {
	return call[domain.BulkVoucherResult](ctx, c, http.MethodPost, "/api/vouchers/bulk", nil, in)
}

func (c *Client) UpdateVoucher(ctx context.Context, code string, p domain.VoucherPatch) (domain.Voucher, error) {
	return call[domain.Voucher](ctx, c, http.MethodPatch, "/api/vouchers/"+escape(code), nil, p)
}

// DeactivateVoucher soft-deletes a voucher.
func (c *Client) DeactivateVoucher(ctx context.Context, code string) (domain.Voucher, error) {
	return call[domain.Voucher](ctx, c, http.MethodDelete, "/api/vouchers/"+escape(code), nil, nil)
}

func (c *Client) RedeemVoucher(ctx context.Context, code string, in domain.RedeemInput) (domain.Voucher, error) {
	return call[domain.Voucher](ctx, c, http.MethodPost, "/api/vouchers/"+escape(code)+"/redeem", nil, in)
}

func (c *Client) ScanVoucher(ctx context.Context, code string) (domain.Voucher, error) {
	return call[domain.Voucher](ctx, c, http.MethodPost, "/api/vouchers/"+escape(code)+"/scan", nil, nil)
}

// VoucherStats aggregates vouchers, for one campaign when campaignID is set.
func (c *Client) VoucherStats(ctx context.Context, campaignID string) (domain.VoucherStats, error) {
	q := url.Values{}
	if campaignID != "" {
		q.Set("campaign_id", campaignID)
	}
	return call[domain.VoucherStats](ctx, c, http.MethodGet, "/api/vouchers/stats", q, nil)
}

// VoucherQR downloads the server-rendered PNG of a voucher's QR code.
func (c *Client) VoucherQR(ctx context.Context, code string) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/api/vouchers/"+escape(code)+"/qr", nil, nil)
	return data, err
}

// Customers

func (c *Client) ListCustomers(ctx context.Context, f domain.CustomerFilter) (domain.Page[domain.Customer], error) {
	return call[domain.Page[domain.Customer]](ctx, c, http.MethodGet, "/api/customers", f.Values(), nil)
}

func (c *Client) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	return call[domain.Customer](ctx, c, http.MethodGet, "/api/customers/"+escape(id), nil, nil)
}

func (c *Client) CreateCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	return call[domain.Customer](ctx, c, http.MethodPost, "/api/customers", nil, in)
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, p domain.CustomerPatch) (domain.Customer, error) {
	return call[domain.Customer](ctx, c, http.MethodPatch, "/api/customers/"+escape(id), nil, p)
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/api/customers/"+escape(id), nil, nil)
	return err
}

func (c *Client) CustomerStats(ctx context.Context) (domain.CustomerStats, error) {
	return call[domain.CustomerStats](ctx, c, http.MethodGet, "/api/customers/stats", nil, nil)
}

// CustomerVouchers lists the vouchers assigned to a customer.
func (c *Client) CustomerVouchers(ctx context.Context, id string, f domain.VoucherFilter) (domain.Page[domain.Voucher], error) {
	f.CustomerID = ""
	return call[domain.Page[domain.Voucher]](ctx, c, http.MethodGet, "/api/customers/"+escape(id)+"/vouchers", f.Values(), nil)
}

// GrantVoucher creates a voucher for a customer and sends it.
func (c *Client) GrantVoucher(ctx context.Context, id string, in domain.GrantVoucherInput) (domain.Voucher, error) {
	return call[domain.Voucher](ctx, c, http.MethodPost, "/api/customers/"+escape(id)+"/vouchers", nil, in)
}

// Logs

func (c *Client) ListLogs(ctx context.Context, f domain.LogFilter) (domain.Page[domain.VoucherLog], error) {
	return call[domain.Page[domain.VoucherLog]](ctx, c, http.MethodGet, "/api/logs", f.Values(), nil)
}

func (c *Client) GetLog(ctx context.Context, id string) (domain.VoucherLog, error) {
	return call[domain.VoucherLog](ctx, c, http.MethodGet, "/api/logs/"+escape(id), nil, nil)
}

func (c *Client) LogStats(ctx context.Context) (domain.LogStats, error) {
	return call[domain.LogStats](ctx, c, http.MethodGet, "/api/logs/stats", nil, nil)
}

// Users

func (c *Client) ListUsers(ctx context.Context, page, limit int) (domain.Page[domain.User], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return call[domain.Page[domain.User]](ctx, c, http.MethodGet, "/api/users", q, nil)
}

func (c *Client) SetUserRole(ctx context.Context, id, role string) (domain.User, error) {
	body := struct {
		Role string `json:"role"`
	}{role}
	return call[domain.User](ctx, c, http.MethodPut, "/api/users/"+escape(id)+"/role", nil, body)
}
