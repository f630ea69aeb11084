package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
	"github.com/jmoiron/sqlx"
)

// LogRepo implements voucherlog.Repository against PostgreSQL.
type LogRepo struct{ db *sqlx.DB }

// NewLogRepo creates a Postgres-backed voucher log repository.
func NewLogRepo(db *sqlx.DB) *LogRepo { return &LogRepo{db: db} }

var _ voucherlog.Repository = (*LogRepo)(nil)

const logColumns = `id, voucher_code, action, actor, channel, ip_address, user_agent, note, created_at`

func (r *LogRepo) Append(ctx context.Context, l *domain.VoucherLog) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO voucher_logs (`+logColumns+`)
		VALUES (:id, :voucher_code, :action, :actor, :channel, :ip_address, :user_agent, :note, :created_at)
	`, l)
	if err != nil {
		return fmt.Errorf("append voucher log: %w", err)
	}
	return nil
}

func (r *LogRepo) Get(ctx context.Context, id string) (*domain.VoucherLog, error) {
	var l domain.VoucherLog
	err := r.db.GetContext(ctx, &l, `SELECT `+logColumns+` FROM voucher_logs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, voucherlog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get voucher log: %w", err)
	}
	return &l, nil
}

func (r *LogRepo) List(ctx context.Context, f voucherlog.ListFilter) ([]domain.VoucherLog, int, error) {
	var w filter
	if f.VoucherCode != "" {
		w.add("voucher_code = ?", f.VoucherCode)
	}
	if f.Action != "" {
		w.add("action = ?", f.Action)
	}
	if f.Actor != "" {
		w.add("actor ILIKE ?", likePattern(f.Actor))
	}
	if f.From != nil {
		w.add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("created_at < ?", *f.To)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM voucher_logs`+w.where(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count voucher logs: %w", err)
	}

	page, args := w.page(f.Limit, f.Offset)
	out := []domain.VoucherLog{}
	q := `SELECT ` + logColumns + ` FROM voucher_logs` + w.where() + ` ORDER BY created_at DESC, id` + page
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list voucher logs: %w", err)
	}
	return out, total, nil
}

func (r *LogRepo) Stats(ctx context.Context, since time.Time) (*domain.LogStats, error) {
	var rows []struct {
		Action string `db:"action"`
		Count  int    `db:"count"`
		Recent int    `db:"recent"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT action, COUNT(*) AS count, COUNT(*) FILTER (WHERE created_at >= $1) AS recent
		FROM voucher_logs GROUP BY action
	`, since)
	if err != nil {
		return nil, fmt.Errorf("voucher log stats: %w", err)
	}
	s := &domain.LogStats{ByAction: make(map[domain.LogAction]int, len(rows))}
	for _, row := range rows {
		s.Total += row.Count
		s.Last24Hours += row.Recent
		s.ByAction[domain.LogAction(row.Action)] = row.Count
	}
	return s, nil
}
