// Package voucherlog records the append-only audit trail of voucher actions.
//
// Entries are never updated or deleted. Each recorded entry is also handed to
// a Publisher so downstream consumers can follow voucher activity.
package voucherlog
