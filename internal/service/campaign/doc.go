// Package campaign implements campaign lifecycle management.
//
// The service layer contains the business logic for creating, editing,
// activating and retiring voucher campaigns. Voucher issuance is delegated to
// an Issuer so this package never imports the voucher service.
//
// Repository implementations live in repository/postgres/ and repository/memory/.
package campaign
