package campaign

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign with its issued and redeemed counts.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter, ordered by created_at DESC.
	List(ctx context.Context, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// Update modifies a campaign. Only non-nil fields in the update are applied.
	Update(ctx context.Context, id string, u UpdateFields) error

	// Delete removes a campaign together with its vouchers.
	Delete(ctx context.Context, id string) error

	// Stats aggregates every campaign.
	Stats(ctx context.Context) (*domain.CampaignStats, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied. It converts directly from domain.CampaignPatch.
type UpdateFields struct {
	Name          *string
	Description   *string
	StartDate     *time.Time
	EndDate       *time.Time
	TotalVouchers *int
	VoucherValue  *float64
	Status        *domain.CampaignStatus
	Channels      []string
}

// Issuer generates vouchers under a campaign.
type Issuer interface {
	IssueForCampaign(ctx context.Context, campaignID string, in domain.IssueInput, actor domain.Actor) (*domain.BulkVoucherResult, error)
}
