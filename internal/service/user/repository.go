package user

import (
	"context"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
)

// Repository defines the data access contract for users.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a user by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername returns a user and its password hash.
	GetByUsername(ctx context.Context, username string) (*domain.User, string, error)

	// List returns users ordered by username.
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)

	// Create inserts a user. Returns ErrDuplicate if the username or email
	// is taken.
	Create(ctx context.Context, u *domain.User, passwordHash string) error

	// SetRole changes a user's role.
	SetRole(ctx context.Context, id, role string) error

	// TouchLogin records a successful login.
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(u domain.User) (string, time.Time, error)
}
