package voucher

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
)

// Repository defines the data access contract for vouchers.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a voucher by code. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, code string) (*domain.Voucher, error)

	// List returns vouchers matching the filter, ordered by created_at DESC.
	List(ctx context.Context, f ListFilter) ([]domain.Voucher, int, error)

	// Create inserts one voucher. Returns ErrDuplicate on a code conflict.
	Create(ctx context.Context, v *domain.Voucher) error

	// CreateBatch inserts vouchers in one transaction. Returns ErrDuplicate
	// and inserts nothing if any code conflicts.
	CreateBatch(ctx context.Context, vs []domain.Voucher) (int, error)

	// Update modifies a voucher. Only non-nil fields are applied. With
	// FromStatus set, the write happens only while the stored status still
	// equals it; otherwise ErrStatusChanged is returned and nothing changes.
	Update(ctx context.Context, code string, u UpdateFields) error

	// Stats aggregates vouchers, optionally for one campaign.
	Stats(ctx context.Context, campaignID string) (*domain.VoucherStats, error)

	// ListDue returns codes of scheduled or active vouchers whose expiry is
	// at or before now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// ListFilter controls pagination and filtering for voucher lists.
type ListFilter struct {
	Status     string
	CampaignID string
	CustomerID string
	Search     string
	Limit      int
	Offset     int
}

// UpdateFields holds the mutable fields for a voucher update.
// Nil fields are not applied.
type UpdateFields struct {
	FromStatus *domain.VoucherStatus
	Status     *domain.VoucherStatus
	CustomerID *string
	ExpiresAt  *time.Time
	Value      *float64
	UsedAt     *time.Time
	OrderID    *string
	QRImageURL *string
}

// CampaignReader resolves the campaign a voucher belongs to.
type CampaignReader interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
}

// AuditLog records voucher actions.
type AuditLog interface {
	Record(ctx context.Context, code string, action domain.LogAction, actor domain.Actor, note string) (*domain.VoucherLog, error)
}

// ImageStore persists rendered QR images and returns their URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
