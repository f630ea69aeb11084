package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/voucher-console/internal/app"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/httputil"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { auth.HashCost = bcrypt.MinCost }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, _, err := app.NewMockHandler(time.Now())
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func login(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/auth/login", "", domain.Credentials{Username: username, Password: memory.DemoPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[domain.AuthToken](t, resp)
	require.NotEmpty(t, tok.Token)
	assert.Equal(t, username, tok.User.RoleName)
	return tok.Token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", st["status"])

	resp = do(t, srv, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/vouchers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/auth/login", "", domain.Credentials{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := login(t, srv, "admin")
	resp = do(t, srv, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[domain.User](t, resp)
	assert.Equal(t, "admin", me.Username)

	resp = do(t, srv, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/auth/register", "", domain.Registration{
		Username: "newbie", Email: "newbie@example.com", Name: "New Bie",
		Password: "longenough", ConfirmPassword: "different",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/auth/register", "", domain.Registration{
		Username: "newbie", Email: "bad", Name: "New Bie", Password: "longenough",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	verr := decode[httputil.ErrorResponse](t, resp)
	assert.Equal(t, httputil.CodeValidation, verr.Code)

	resp = do(t, srv, http.MethodPost, "/auth/register", "", domain.Registration{
		Username: "newbie", Email: "newbie@example.com", Name: "New Bie", Password: "longenough",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	u := decode[domain.User](t, resp)
	assert.Equal(t, "viewer", u.RoleName)

	resp = do(t, srv, http.MethodPost, "/auth/register", "", domain.Registration{
		Username: "newbie", Email: "other@example.com", Name: "New Bie", Password: "longenough",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginThrottled(t *testing.T) {
	srv := newTestServer(t)
	bad := domain.Credentials{Username: "admin", Password: "nope"}
	codes := make([]int, 0, 7)
	for i := 0; i < 7; i++ {
		codes = append(codes, do(t, srv, http.MethodPost, "/auth/login", "", bad).StatusCode)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[len(codes)-1])
}

func TestPermissions(t *testing.T) {
	srv := newTestServer(t)
	viewer := login(t, srv, "viewer")

	resp := do(t, srv, http.MethodGet, "/api/campaigns", viewer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/campaigns", viewer, domain.CampaignInput{Name: "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/users", login(t, srv, "manager"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/users", login(t, srv, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decode[domain.Page[domain.User]](t, resp)
	assert.Equal(t, int64(4), users.Pagination.Total)
}

func TestCampaignCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "manager")

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	resp := do(t, srv, http.MethodPost, "/api/campaigns", token, domain.CampaignInput{
		Name: "Autumn", StartDate: start, EndDate: start.Add(30 * 24 * time.Hour),
		TotalVouchers: 10, VoucherValue: 15, Channels: []string{domain.ChannelSMS},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[domain.Campaign](t, resp)
	assert.Equal(t, domain.CampaignDraft, c.Status)

	resp = do(t, srv, http.MethodGet, "/api/campaigns?search=autumn", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[domain.Page[domain.Campaign]](t, resp)
	require.Len(t, page.Data, 1)
	assert.Equal(t, c.ID, page.Data[0].ID)

	name := "Autumn Sale"
	resp = do(t, srv, http.MethodPatch, "/api/campaigns/"+c.ID, token, domain.CampaignPatch{Name: &name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, name, decode[domain.Campaign](t, resp).Name)

	resp = do(t, srv, http.MethodDelete, "/api/campaigns/"+c.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodGet, "/api/campaigns/"+c.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/campaigns/stats", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCampaignIssue(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "manager")

	resp := do(t, srv, http.MethodPost, "/api/campaigns/cmp-spring/issue", token, domain.IssueInput{Count: 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[domain.BulkVoucherResult](t, resp)
	assert.Equal(t, 3, res.Created)
	assert.Len(t, res.Codes, 3)

	resp = do(t, srv, http.MethodGet, "/api/vouchers?campaign_id=cmp-spring&limit=100", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[domain.Page[domain.Voucher]](t, resp)
	assert.Equal(t, int64(9), page.Pagination.Total)
}

func TestVoucherRedeemAndLogs(t *testing.T) {
	srv := newTestServer(t)
	op := login(t, srv, "operator")

	resp := do(t, srv, http.MethodPost, "/api/vouchers/SPRING-0002/redeem", op, domain.RedeemInput{OrderID: "ORD-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[domain.Voucher](t, resp)
	assert.Equal(t, domain.VoucherUsed, v.Status)

	resp = do(t, srv, http.MethodPost, "/api/vouchers/SPRING-0002/redeem", op, domain.RedeemInput{OrderID: "ORD-2"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/vouchers/NOPE-0000/scan", op, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/logs?voucher_code=SPRING-0002&action=redeem", op, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[domain.Page[domain.VoucherLog]](t, resp)
	require.Len(t, logs.Data, 1)
	assert.Equal(t, "usr-operator", logs.Data[0].Actor)
	assert.Equal(t, "console", logs.Data[0].Channel)

	resp = do(t, srv, http.MethodGet, "/api/logs/"+logs.Data[0].ID, op, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/logs?from=yesterday", op, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoucherCreateAndDeactivate(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "manager")

	resp := do(t, srv, http.MethodPost, "/api/vouchers", token, domain.VoucherInput{CampaignID: "cmp-spring", Value: 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	v := decode[domain.Voucher](t, resp)
	require.NotEmpty(t, v.Code)

	resp = do(t, srv, http.MethodDelete, "/api/vouchers/"+v.Code, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.VoucherInactive, decode[domain.Voucher](t, resp).Status)

	resp = do(t, srv, http.MethodPost, "/api/vouchers/bulk", token, domain.BulkVoucherInput{CampaignID: "cmp-spring", Count: 4, Prefix: "BULK"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 4, decode[domain.BulkVoucherResult](t, resp).Created)

	resp = do(t, srv, http.MethodGet, "/api/vouchers/stats?campaign_id=cmp-spring", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[domain.VoucherStats](t, resp)
	assert.Equal(t, 11, st.Total)
}

func TestVoucherQR(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "viewer")

	resp := do(t, srv, http.MethodGet, "/api/vouchers/SPRING-0001/qr", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestCustomers(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "operator")

	resp := do(t, srv, http.MethodPost, "/api/customers", token, domain.CustomerInput{Name: "Fay", Phone: "555"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/customers", token, domain.CustomerInput{Name: "Fay", Phone: "+15550100001"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/customers", token, domain.CustomerInput{Name: "Fay", Phone: "+15550109999", Tags: []string{"vip"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[domain.Customer](t, resp)

	resp = do(t, srv, http.MethodPost, "/api/customers/"+c.ID+"/vouchers", token, domain.GrantVoucherInput{CampaignID: "cmp-spring"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	v := decode[domain.Voucher](t, resp)
	require.NotNil(t, v.CustomerID)
	assert.Equal(t, c.ID, *v.CustomerID)

	resp = do(t, srv, http.MethodGet, "/api/customers/"+c.ID+"/vouchers", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[domain.Page[domain.Voucher]](t, resp)
	require.Len(t, page.Data, 1)
	assert.Equal(t, v.Code, page.Data[0].Code)

	resp = do(t, srv, http.MethodGet, "/api/customers?tag=vip", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), decode[domain.Page[domain.Customer]](t, resp).Pagination.Total)

	resp = do(t, srv, http.MethodGet, "/api/customers/missing/vouchers", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
