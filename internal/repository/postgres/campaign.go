package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/campaign"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sqlx.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sqlx.DB) *CampaignRepo { return &CampaignRepo{db: db} }

var _ campaign.Repository = (*CampaignRepo)(nil)

type campaignRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Description   string         `db:"description"`
	StartDate     time.Time      `db:"start_date"`
	EndDate       time.Time      `db:"end_date"`
	TotalVouchers int            `db:"total_vouchers"`
	VoucherValue  float64        `db:"voucher_value"`
	Status        string         `db:"status"`
	Channels      pq.StringArray `db:"channels"`
	IssuedCount   int            `db:"issued_count"`
	RedeemedCount int            `db:"redeemed_count"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r campaignRow) toDomain() domain.Campaign {
	ch := []string(r.Channels)
	if ch == nil {
		ch = []string{}
	}
	return domain.Campaign{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		TotalVouchers: r.TotalVouchers,
		VoucherValue:  r.VoucherValue,
		Status:        domain.CampaignStatus(r.Status),
		Channels:      ch,
		IssuedCount:   r.IssuedCount,
		RedeemedCount: r.RedeemedCount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const campaignSelect = `
	SELECT c.id, c.name, c.description, c.start_date, c.end_date, c.total_vouchers,
	       c.voucher_value, c.status, c.channels, c.created_at, c.updated_at,
	       COALESCE(v.issued, 0) AS issued_count, COALESCE(v.redeemed, 0) AS redeemed_count
	FROM campaigns c
	LEFT JOIN (
		SELECT campaign_id, COUNT(*) AS issued,
		       COUNT(*) FILTER (WHERE status = 'used') AS redeemed
		FROM vouchers GROUP BY campaign_id
	) v ON v.campaign_id = c.id`

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	var row campaignRow
	err := r.db.GetContext(ctx, &row, campaignSelect+` WHERE c.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

func (r *CampaignRepo) List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	var w filter
	if f.Status != "" {
		w.add("c.status = ?", f.Status)
	}
	if f.Search != "" {
		w.add("(c.name ILIKE ? OR c.description ILIKE ?)", likePattern(f.Search))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns c`+w.where(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	page, args := w.page(f.Limit, f.Offset)
	var rows []campaignRow
	q := campaignSelect + w.where() + ` ORDER BY c.created_at DESC, c.id` + page
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	out := make([]domain.Campaign, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, total, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, name, description, start_date, end_date, total_vouchers,
			 voucher_value, status, channels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, c.ID, c.Name, c.Description, c.StartDate, c.EndDate, c.TotalVouchers,
		c.VoucherValue, c.Status, pq.Array(c.Channels), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Update(ctx context.Context, id string, u campaign.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.StartDate != nil {
		add("start_date", *u.StartDate)
	}
	if u.EndDate != nil {
		add("end_date", *u.EndDate)
	}
	if u.TotalVouchers != nil {
		add("total_vouchers", *u.TotalVouchers)
	}
	if u.VoucherValue != nil {
		add("voucher_value", *u.VoucherValue)
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.Channels != nil {
		add("channels", pq.Array(u.Channels))
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE campaigns SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Stats(ctx context.Context) (*domain.CampaignStats, error) {
	var rows []campaignRow
	if err := r.db.SelectContext(ctx, &rows, campaignSelect); err != nil {
		return nil, fmt.Errorf("campaign stats: %w", err)
	}
	s := &domain.CampaignStats{}
	for _, row := range rows {
		s.Add(row.toDomain())
	}
	return s, nil
}
