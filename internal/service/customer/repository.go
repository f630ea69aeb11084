package customer

import (
	"context"

	"github.com/ignite/voucher-console/internal/domain"
)

// Repository defines the data access contract for customers.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a customer with voucher counts. Returns ErrNotFound if it
	// doesn't exist.
	Get(ctx context.Context, id string) (*domain.Customer, error)

	// List returns customers matching the filter, ordered by created_at DESC.
	List(ctx context.Context, f ListFilter) ([]domain.Customer, int, error)

	// Create inserts a customer. Returns ErrDuplicatePhone on a phone conflict.
	Create(ctx context.Context, c *domain.Customer) error

	// Update modifies a customer. Only non-nil fields are applied.
	Update(ctx context.Context, id string, u UpdateFields) error

	// Delete removes a customer. Assigned vouchers are kept and unassigned.
	Delete(ctx context.Context, id string) error

	// Stats aggregates every customer.
	Stats(ctx context.Context) (*domain.CustomerStats, error)
}

// ListFilter controls pagination and filtering for customer lists.
type ListFilter struct {
	Status string
	Tag    string
	Search string
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for a customer update.
// Nil fields are not applied. It converts directly from domain.CustomerPatch.
type UpdateFields struct {
	Name   *string
	Phone  *string
	Email  *string
	Tags   []string
	Status *domain.CustomerStatus
	Notes  *string
}

// VoucherIssuer creates vouchers assigned to a customer.
type VoucherIssuer interface {
	Create(ctx context.Context, in domain.VoucherInput, actor domain.Actor) (*domain.Voucher, error)
}

// Deliverer sends a granted voucher to its customer over channel.
type Deliverer interface {
	Deliver(ctx context.Context, c domain.Customer, v domain.Voucher, channel string) error
}
