package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/ignite/voucher-console/internal/service/campaign"
	"github.com/ignite/voucher-console/internal/service/customer"
	"github.com/ignite/voucher-console/internal/service/voucher"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { auth.HashCost = bcrypt.MinCost }

func seeded(t *testing.T) *memory.DB {
	t.Helper()
	db := memory.New()
	require.NoError(t, memory.Seed(db, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	return db
}

func TestSeedCounts(t *testing.T) {
	db := seeded(t)
	ctx := context.Background()

	c, err := db.Campaigns().Get(ctx, "cmp-spring")
	require.NoError(t, err)
	assert.Equal(t, 6, c.IssuedCount)
	assert.Equal(t, 2, c.RedeemedCount)
	assert.Equal(t, 194, c.Remaining())

	cs, total, err := db.Campaigns().List(ctx, campaign.ListFilter{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, cs, 2)

	vs, err := db.Vouchers().Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 18, vs.Total)

	users, n, err := db.Users().List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "admin", users[0].Username)
}

func TestVoucherBatchIsAtomic(t *testing.T) {
	db := seeded(t)
	ctx := context.Background()
	repo := db.Vouchers()

	_, err := repo.CreateBatch(ctx, []domain.Voucher{
		{Code: "NEW-1", CampaignID: "cmp-spring", Status: domain.VoucherActive},
		{Code: "SPRING-0001", CampaignID: "cmp-spring", Status: domain.VoucherActive},
	})
	assert.ErrorIs(t, err, voucher.ErrDuplicate)
	_, err = repo.Get(ctx, "NEW-1")
	assert.ErrorIs(t, err, voucher.ErrNotFound)

	n, err := repo.CreateBatch(ctx, []domain.Voucher{
		{Code: "NEW-1", CampaignID: "cmp-spring"},
		{Code: "NEW-2", CampaignID: "cmp-spring"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestVoucherListFilterAndPaging(t *testing.T) {
	db := seeded(t)
	ctx := context.Background()

	page, total, err := db.Vouchers().List(ctx, voucher.ListFilter{CampaignID: "cmp-welcome", Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, page, 4)
	assert.Equal(t, "WELCOME-0006", page[0].Code)

	page, _, err = db.Vouchers().List(ctx, voucher.ListFilter{CampaignID: "cmp-welcome", Limit: 4, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, total, err = db.Vouchers().List(ctx, voucher.ListFilter{Search: "spring-000", Status: "used"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, v := range page {
		assert.Equal(t, domain.VoucherUsed, v.Status)
	}
}

func TestListDue(t *testing.T) {
	db := seeded(t)
	codes, err := db.Vouchers().ListDue(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"WINTER-0002"}, codes)
}

func TestVoucherUpdateFromStatus(t *testing.T) {
	db := seeded(t)
	ctx := context.Background()
	active, used := domain.VoucherActive, domain.VoucherUsed
	order := "ORD-A"

	require.NoError(t, db.Vouchers().Update(ctx, "SPRING-0002", voucher.UpdateFields{FromStatus: &active, Status: &used, OrderID: &order}))

	other := "ORD-B"
	err := db.Vouchers().Update(ctx, "SPRING-0002", voucher.UpdateFields{FromStatus: &active, Status: &used, OrderID: &other})
	assert.ErrorIs(t, err, voucher.ErrStatusChanged)
	err = db.Vouchers().Update(ctx, "NOPE", voucher.UpdateFields{FromStatus: &active, Status: &used})
	assert.ErrorIs(t, err, voucher.ErrNotFound)

	v, err := db.Vouchers().Get(ctx, "SPRING-0002")
	require.NoError(t, err)
	require.NotNil(t, v.OrderID)
	assert.Equal(t, "ORD-A", *v.OrderID)
}

func TestCustomerPhoneUniqueAndDelete(t *testing.T) {
	db := seeded(t)
	ctx := context.Background()
	repo := db.Customers()

	err := repo.Create(ctx, &domain.Customer{ID: "x", Name: "Dup", Phone: "+15550100001"})
	assert.ErrorIs(t, err, customer.ErrDuplicatePhone)

	phone := "+15550100002"
	assert.ErrorIs(t, repo.Update(ctx, "cus-1", customer.UpdateFields{Phone: &phone}), customer.ErrDuplicatePhone)

	c, err := repo.Get(ctx, "cus-1")
	require.NoError(t, err)
	require.Positive(t, c.TotalVouchers)

	require.NoError(t, repo.Delete(ctx, "cus-1"))
	vs, _, err := db.Vouchers().List(ctx, voucher.ListFilter{CustomerID: "cus-1"})
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestCampaignDeleteCascades(t *testing.T) {
	db := seeded(t)
	ctx := context.Background()
	require.NoError(t, db.Campaigns().Delete(ctx, "cmp-winter"))
	_, total, err := db.Vouchers().List(ctx, voucher.ListFilter{CampaignID: "cmp-winter"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.ErrorIs(t, db.Campaigns().Delete(ctx, "cmp-winter"), campaign.ErrNotFound)
}

func TestLogFilters(t *testing.T) {
	db := seeded(t)
	ctx := context.Background()

	logs, total, err := db.Logs().List(ctx, voucherlog.ListFilter{VoucherCode: "SPRING-0001"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, domain.ActionRedeem, logs[0].Action)

	_, total, err = db.Logs().List(ctx, voucherlog.ListFilter{Action: "redeem"})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	st, err := db.Logs().Stats(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 18, st.ByAction[domain.ActionCreated])
}
