package domain

import "time"

// LogAction enumerates the audited voucher actions.
type LogAction string

const (
	ActionCreated     LogAction = "created"
	ActionActivated   LogAction = "activated"
	ActionScanned     LogAction = "scanned"
	ActionRedeem      LogAction = "redeem"
	ActionExpired     LogAction = "expired"
	ActionDeactivated LogAction = "deactivated"
)

// LogActions lists every action in display order.
var LogActions = []LogAction{
	ActionCreated, ActionActivated, ActionScanned, ActionRedeem, ActionExpired, ActionDeactivated,
}

// Valid reports whether a is a known action.
func (a LogAction) Valid() bool {
	for _, v := range LogActions {
		if a == v {
			return true
		}
	}
	return false
}

// ActionForStatus maps a status change to the action that records it.
func ActionForStatus(s VoucherStatus) LogAction {
	switch s {
	case VoucherActive:
		return ActionActivated
	case VoucherUsed:
		return ActionRedeem
	case VoucherExpired:
		return ActionExpired
	case VoucherInactive:
		return ActionDeactivated
	}
	return ActionCreated
}

// VoucherLog is an immutable, append-only audit record of a voucher action.
type VoucherLog struct {
	ID          string    `json:"id" db:"id"`
	VoucherCode string    `json:"voucher_code" db:"voucher_code"`
	Action      LogAction `json:"action" db:"action"`
	Actor       string    `json:"actor" db:"actor"`
	Channel     string    `json:"channel" db:"channel"`
	IPAddress   string    `json:"ip_address" db:"ip_address"`
	UserAgent   string    `json:"user_agent" db:"user_agent"`
	Note        string    `json:"note" db:"note"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Actor carries request metadata recorded on every log entry.
type Actor struct {
	Name      string
	Channel   string
	IPAddress string
	UserAgent string
}
