package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/voucher"
	"github.com/jmoiron/sqlx"
)

// insertBatchSize keeps multi-row inserts well under the 65535 parameter cap.
const insertBatchSize = 500

// VoucherRepo implements voucher.Repository against PostgreSQL.
type VoucherRepo struct{ db *sqlx.DB }

// NewVoucherRepo creates a Postgres-backed voucher repository.
func NewVoucherRepo(db *sqlx.DB) *VoucherRepo { return &VoucherRepo{db: db} }

var _ voucher.Repository = (*VoucherRepo)(nil)

const voucherColumns = `code, campaign_id, customer_id, status, value, expires_at, used_at,
	order_id, qr_payload, qr_image_url, created_at, updated_at`

func (r *VoucherRepo) Get(ctx context.Context, code string) (*domain.Voucher, error) {
	var v domain.Voucher
	err := r.db.GetContext(ctx, &v, `SELECT `+voucherColumns+` FROM vouchers WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, voucher.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	return &v, nil
}

func (r *VoucherRepo) List(ctx context.Context, f voucher.ListFilter) ([]domain.Voucher, int, error) {
	var w filter
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.CampaignID != "" {
		w.add("campaign_id = ?", f.CampaignID)
	}
	if f.CustomerID != "" {
		w.add("customer_id = ?", f.CustomerID)
	}
	if f.Search != "" {
		w.add("code ILIKE ?", likePattern(f.Search))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM vouchers`+w.where(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count vouchers: %w", err)
	}

	page, args := w.page(f.Limit, f.Offset)
	out := []domain.Voucher{}
	q := `SELECT ` + voucherColumns + ` FROM vouchers` + w.where() + ` ORDER BY created_at DESC, code` + page
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list vouchers: %w", err)
	}
	return out, total, nil
}

func (r *VoucherRepo) Create(ctx context.Context, v *domain.Voucher) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO vouchers (`+voucherColumns+`)
		VALUES (:code, :campaign_id, :customer_id, :status, :value, :expires_at, :used_at,
		        :order_id, :qr_payload, :qr_image_url, :created_at, :updated_at)
	`, v)
	if isUniqueViolation(err) {
		return voucher.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create voucher: %w", err)
	}
	return nil
}

func (r *VoucherRepo) CreateBatch(ctx context.Context, vs []domain.Voucher) (int, error) {
	if len(vs) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < len(vs); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(vs) {
			end = len(vs)
		}
		if err := insertVoucherBatch(ctx, tx, vs[i:end]); err != nil {
			if isUniqueViolation(err) {
				return 0, voucher.ErrDuplicate
			}
			return 0, fmt.Errorf("insert voucher batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(vs), nil
}

func insertVoucherBatch(ctx context.Context, tx *sqlx.Tx, vs []domain.Voucher) error {
	const cols = 12
	values := make([]string, len(vs))
	args := make([]interface{}, 0, len(vs)*cols)
	for i, v := range vs {
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		values[i] = "(" + joinComma(ph) + ")"
		args = append(args, v.Code, v.CampaignID, v.CustomerID, v.Status, v.Value, v.ExpiresAt,
			v.UsedAt, v.OrderID, v.QRPayload, v.QRImageURL, v.CreatedAt, v.UpdatedAt)
	}
	q := `INSERT INTO vouchers (` + voucherColumns + `) VALUES ` + strings.Join(values, ", ")
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

func (r *VoucherRepo) Update(ctx context.Context, code string, u voucher.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.CustomerID != nil {
		add("customer_id", *u.CustomerID)
	}
	if u.ExpiresAt != nil {
		add("expires_at", *u.ExpiresAt)
	}
	if u.Value != nil {
		add("value", *u.Value)
	}
	if u.UsedAt != nil {
		add("used_at", *u.UsedAt)
	}
	if u.OrderID != nil {
		add("order_id", *u.OrderID)
	}
	if u.QRImageURL != nil {
		add("qr_image_url", *u.QRImageURL)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE vouchers SET %s WHERE code = $%d", joinComma(sets), idx)
	args = append(args, code)
	if u.FromStatus != nil {
		q += fmt.Sprintf(" AND status = $%d", idx+1)
		args = append(args, string(*u.FromStatus))
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}
	if u.FromStatus == nil {
		return voucher.ErrNotFound
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM vouchers WHERE code = $1)`, code); err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if !exists {
		return voucher.ErrNotFound
	}
	return voucher.ErrStatusChanged
}

type voucherStatsRow struct {
	Total         int     `db:"total"`
	Scheduled     int     `db:"scheduled"`
	Active        int     `db:"active"`
	Used          int     `db:"used"`
	Expired       int     `db:"expired"`
	Inactive      int     `db:"inactive"`
	TotalValue    float64 `db:"total_value"`
	RedeemedValue float64 `db:"redeemed_value"`
}

func (r *VoucherRepo) Stats(ctx context.Context, campaignID string) (*domain.VoucherStats, error) {
	var row voucherStatsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'scheduled') AS scheduled,
		       COUNT(*) FILTER (WHERE status = 'active')    AS active,
		       COUNT(*) FILTER (WHERE status = 'used')      AS used,
		       COUNT(*) FILTER (WHERE status = 'expired')   AS expired,
		       COUNT(*) FILTER (WHERE status = 'inactive')  AS inactive,
		       COALESCE(SUM(value), 0) AS total_value,
		       COALESCE(SUM(value) FILTER (WHERE status = 'used'), 0) AS redeemed_value
		FROM vouchers
		WHERE ($1 = '' OR campaign_id = $1)
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("voucher stats: %w", err)
	}
	return &domain.VoucherStats{
		Total:          row.Total,
		Scheduled:      row.Scheduled,
		Active:         row.Active,
		Used:           row.Used,
		Expired:        row.Expired,
		Inactive:       row.Inactive,
		TotalValue:     row.TotalValue,
		RedeemedValue:  row.RedeemedValue,
		RedemptionRate: domain.Rate(row.Used, row.Total),
	}, nil
}

func (r *VoucherRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}
	var codes []string
	err := r.db.SelectContext(ctx, &codes, `
		SELECT code FROM vouchers
		WHERE status IN ('scheduled', 'active') AND expires_at <= $1
		ORDER BY expires_at, code
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due vouchers: %w", err)
	}
	return codes, nil
}
