// Package customer manages voucher recipients and grants them vouchers.
package customer
