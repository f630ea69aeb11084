package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrActive            = errors.New("campaign is active")
	ErrBelowIssued       = errors.New("total vouchers below issued count")
	ErrNoIssuer          = errors.New("voucher issuance is not configured")
)
