package voucherlog

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
)

// Repository defines the data access contract for voucher logs.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Append stores a new entry.
	Append(ctx context.Context, l *domain.VoucherLog) error

	// Get returns one entry. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.VoucherLog, error)

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, f ListFilter) ([]domain.VoucherLog, int, error)

	// Stats counts entries per action and those created after since.
	Stats(ctx context.Context, since time.Time) (*domain.LogStats, error)
}

// ListFilter controls pagination and filtering for log lists.
type ListFilter struct {
	VoucherCode string
	Action      string
	Actor       string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// Publisher forwards recorded entries to other systems.
type Publisher interface {
	Publish(ctx context.Context, l domain.VoucherLog) error
}
