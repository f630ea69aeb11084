package voucherlog

import "errors"

// Sentinel errors for the voucher log service layer.
var (
	ErrNotFound      = errors.New("voucher log not found")
	ErrInvalidAction = errors.New("invalid log action")
)
