package voucher

import "errors"

// Sentinel errors for the voucher service layer.
var (
	ErrNotFound          = errors.New("voucher not found")
	ErrDuplicate         = errors.New("voucher code already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotRedeemable     = errors.New("voucher is not active")
	ErrExpired           = errors.New("voucher has expired")
	ErrAllotmentExceeded = errors.New("campaign voucher allotment exceeded")
	ErrCampaignClosed    = errors.New("campaign is not accepting vouchers")
	ErrStatusChanged     = errors.New("voucher status changed")
)
