// Package export renders records as CSV downloads and vouchers as QR images.
package export
