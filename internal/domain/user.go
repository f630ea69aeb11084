package domain

import (
	"fmt"
	"time"
)

// User is an operator of the console.
type User struct {
	ID          string     `json:"id" db:"id"`
	Username    string     `json:"username" db:"username"`
	Email       string     `json:"email" db:"email"`
	Name        string     `json:"name" db:"name"`
	RoleName    string     `json:"role" db:"role"`
	Active      bool       `json:"active" db:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Role resolves the user's role. Unknown role names resolve to Viewer.
func (u User) Role() Role {
	r, err := ParseRole(u.RoleName)
	if err != nil {
		return Viewer{}
	}
	return r
}

// Role is a closed set of console roles. The unexported method keeps the
// set sealed to this package.
type Role interface {
	Name() string
	role()
}

// Admin manages everything including users.
type Admin struct{}

// Manager manages campaigns, vouchers and customers.
type Manager struct{}

// Operator scans, redeems and grants vouchers.
type Operator struct{}

// Viewer has read-only access.
type Viewer struct{}

func (Admin) Name() string    { return "admin" }
func (Manager) Name() string  { return "manager" }
func (Operator) Name() string { return "operator" }
func (Viewer) Name() string   { return "viewer" }

func (Admin) role()    {}
func (Manager) role()  {}
func (Operator) role() {}
func (Viewer) role()   {}

// Roles lists every role.
var Roles = []Role{Admin{}, Manager{}, Operator{}, Viewer{}}

// ParseRole maps a role name to its variant.
func ParseRole(name string) (Role, error) {
	for _, r := range Roles {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("unknown role %q", name)
}

// Capability is a set of permissions.
type Capability uint32

const (
	CapRead Capability = 1 << iota
	CapManageCampaigns
	CapManageVouchers
	CapRedeemVouchers
	CapManageCustomers
	CapExport
	CapManageUsers
)

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool { return c&want == want }

// CapabilitiesOf returns the capabilities granted to r.
func CapabilitiesOf(r Role) Capability {
	switch r.(type) {
	case Admin:
		return CapRead | CapManageCampaigns | CapManageVouchers | CapRedeemVouchers |
			CapManageCustomers | CapExport | CapManageUsers
	case Manager:
		return CapRead | CapManageCampaigns | CapManageVouchers | CapRedeemVouchers |
			CapManageCustomers | CapExport
	case Operator:
		return CapRead | CapRedeemVouchers | CapManageCustomers
	case Viewer:
		return CapRead
	}
	panic(fmt.Sprintf("domain: unhandled role %T", r))
}

// Credentials are submitted to log in.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration is submitted to create an account.
type Registration struct {
	Username        string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"required,max=200"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// AuthToken is returned by a successful login.
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
