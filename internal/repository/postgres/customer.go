package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/customer"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CustomerRepo implements customer.Repository against PostgreSQL.
type CustomerRepo struct{ db *sqlx.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

var _ customer.Repository = (*CustomerRepo)(nil)

type customerRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Phone         string         `db:"phone"`
	Email         string         `db:"email"`
	Tags          pq.StringArray `db:"tags"`
	Status        string         `db:"status"`
	Notes         string         `db:"notes"`
	TotalVouchers int            `db:"total_vouchers"`
	UsedVouchers  int            `db:"used_vouchers"`
	Revenue       float64        `db:"revenue"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r customerRow) toDomain() domain.Customer {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domain.Customer{
		ID:            r.ID,
		Name:          r.Name,
		Phone:         r.Phone,
		Email:         r.Email,
		Tags:          tags,
		Status:        domain.CustomerStatus(r.Status),
		Notes:         r.Notes,
		TotalVouchers: r.TotalVouchers,
		UsedVouchers:  r.UsedVouchers,
		Revenue:       r.Revenue,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

const customerSelect = `
	SELECT c.id, c.name, c.phone, c.email, c.tags, c.status, c.notes, c.created_at, c.updated_at,
	       COALESCE(v.total, 0) AS total_vouchers, COALESCE(v.used, 0) AS used_vouchers,
	       COALESCE(v.revenue, 0) AS revenue
	FROM customers c
	LEFT JOIN (
		SELECT customer_id, COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'used') AS used,
		       SUM(value) FILTER (WHERE status = 'used') AS revenue
		FROM vouchers WHERE customer_id IS NOT NULL GROUP BY customer_id
	) v ON v.customer_id = c.id`

func (r *CustomerRepo) Get(ctx context.Context, id string) (*domain.Customer, error) {
	var row customerRow
	err := r.db.GetContext(ctx, &row, customerSelect+` WHERE c.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

func (r *CustomerRepo) List(ctx context.Context, f customer.ListFilter) ([]domain.Customer, int, error) {
	var w filter
	if f.Status != "" {
		w.add("c.status = ?", f.Status)
	}
	if f.Tag != "" {
		w.add("? = ANY(c.tags)", f.Tag)
	}
	if f.Search != "" {
		w.add("(c.name ILIKE ? OR c.phone ILIKE ? OR c.email ILIKE ?)", likePattern(f.Search))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM customers c`+w.where(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	page, args := w.page(f.Limit, f.Offset)
	var rows []customerRow
	q := customerSelect + w.where() + ` ORDER BY c.created_at DESC, c.id` + page
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	out := make([]domain.Customer, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, total, nil
}

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, email, tags, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.Name, c.Phone, c.Email, pq.Array(c.Tags), c.Status, c.Notes, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return customer.ErrDuplicatePhone
	}
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) Update(ctx context.Context, id string, u customer.UpdateFields) error {
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
	if u.Phone != nil {
		add("phone", *u.Phone)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.Tags != nil {
		add("tags", pq.Array(u.Tags))
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.Notes != nil {
		add("notes", *u.Notes)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE customers SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if isUniqueViolation(err) {
		return customer.ErrDuplicatePhone
	}
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return customer.ErrNotFound
	}
	return nil
}

type customerStatsRow struct {
	Total          int     `db:"total"`
	Active         int     `db:"active"`
	Inactive       int     `db:"inactive"`
	VouchersIssued int     `db:"vouchers_issued"`
	VouchersUsed   int     `db:"vouchers_used"`
	TotalRevenue   float64 `db:"total_revenue"`
}

func (r *CustomerRepo) Stats(ctx context.Context) (*domain.CustomerStats, error) {
	var row customerStatsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT (SELECT COUNT(*) FROM customers) AS total,
		       (SELECT COUNT(*) FROM customers WHERE status <> 'inactive') AS active,
		       (SELECT COUNT(*) FROM customers WHERE status = 'inactive') AS inactive,
		       COUNT(v.code) AS vouchers_issued,
		       COUNT(v.code) FILTER (WHERE v.status = 'used') AS vouchers_used,
		       COALESCE(SUM(v.value) FILTER (WHERE v.status = 'used'), 0) AS total_revenue
		FROM vouchers v
		WHERE v.customer_id IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("customer stats: %w", err)
	}
	s := domain.CustomerStats(row)
	return &s, nil
}
