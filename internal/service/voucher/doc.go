// Package voucher implements the voucher lifecycle: issuing codes, status
// transitions, redemption, scanning and expiry.
//
// Every state change is written to the audit trail through AuditLog. A
// voucher is never deleted; deactivation moves it to the inactive status.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
package voucher
