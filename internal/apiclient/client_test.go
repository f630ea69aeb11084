package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/voucher-console/internal/apiclient"
	"github.com/ignite/voucher-console/internal/app"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/notify"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { auth.HashCost = bcrypt.MinCost }

func newMockClient(t *testing.T) (*apiclient.Client, *string) {
	t.Helper()
	h, _, err := app.NewMockHandler(time.Now())
	require.NoError(t, err)
	token := new(string)
	c, err := apiclient.New("http://mock.local",
		apiclient.WithHTTPClient(apiclient.InProcess(h)),
		apiclient.WithTokenSource(apiclient.TokenFunc(func() string { return *token })),
		apiclient.WithChannel("cli"),
	)
	require.NoError(t, err)
	return c, token
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := apiclient.New("/api")
	assert.Error(t, err)
}

func TestInProcess_LoginAndList(t *testing.T) {
	ctx := context.Background()
	c, token := newMockClient(t)

	_, err := c.ListVouchers(ctx, domain.VoucherFilter{})
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusOf(err))

	tok, err := c.Login(ctx, domain.Credentials{Username: "manager", Password: memory.DemoPassword})
	require.NoError(t, err)
	*token = tok.Token

	page, err := c.ListVouchers(ctx, domain.VoucherFilter{CampaignID: "cmp-spring", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(6), page.Pagination.Total)
	assert.True(t, page.Pagination.HasMore)

	v, err := c.RedeemVoucher(ctx, "spring-0003", domain.RedeemInput{OrderID: "ORD-9"})
	require.NoError(t, err)
	assert.Equal(t, domain.VoucherUsed, v.Status)

	logs, err := c.ListLogs(ctx, domain.LogFilter{VoucherCode: "SPRING-0003", Action: domain.ActionRedeem})
	require.NoError(t, err)
	require.Len(t, logs.Data, 1)
	assert.Equal(t, "cli", logs.Data[0].Channel)
	assert.Equal(t, "voucher-console", logs.Data[0].UserAgent)

	png, err := c.VoucherQR(ctx, "SPRING-0003")
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusOf(err))
}

func TestAPIError_Decoding(t *testing.T) {
	ctx := context.Background()
	c, token := newMockClient(t)
	tok, err := c.Login(ctx, domain.Credentials{Username: "operator", Password: memory.DemoPassword})
	require.NoError(t, err)
	*token = tok.Token

	_, err = c.CreateCustomer(ctx, domain.CustomerInput{Name: "X", Phone: "12"})
	require.Error(t, err)
	var ae *apiclient.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, "validation_failed", ae.Code)
	assert.Contains(t, notify.MessageFrom(err, "fallback"), "phone")

	_, err = c.CreateCampaign(ctx, domain.CampaignInput{Name: "nope"})
	assert.Equal(t, http.StatusForbidden, apiclient.StatusOf(err))
}

func TestAPIError_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL, apiclient.WithTokenSource(apiclient.TokenFunc(func() string { return "abc" })))
	require.NoError(t, err)
	_, err = c.CampaignStats(context.Background())
	var ae *apiclient.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "Bad Gateway", ae.Message)
}

func TestNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	_, err = c.GetVoucher(context.Background(), "X")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
