package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/pkg/httputil"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/pkg/validate"
	"github.com/ignite/voucher-console/internal/service/campaign"
	"github.com/ignite/voucher-console/internal/service/customer"
	"github.com/ignite/voucher-console/internal/service/user"
	"github.com/ignite/voucher-console/internal/service/voucher"
	"github.com/ignite/voucher-console/internal/service/voucherlog"
)

// statusFor maps service errors to HTTP status codes. Zero means the error
// is internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validate.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, voucher.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, voucherlog.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, voucher.ErrDuplicate),
		errors.Is(err, customer.ErrDuplicatePhone),
		errors.Is(err, user.ErrDuplicate),
		errors.Is(err, campaign.ErrInvalidTransition),
		errors.Is(err, campaign.ErrActive),
		errors.Is(err, campaign.ErrBelowIssued),
		errors.Is(err, voucher.ErrInvalidTransition),
		errors.Is(err, voucher.ErrNotRedeemable),
		errors.Is(err, voucher.ErrExpired),
		errors.Is(err, voucher.ErrAllotmentExceeded),
		errors.Is(err, voucher.ErrCampaignClosed),
		errors.Is(err, customer.ErrInactive):
		return http.StatusConflict
	case errors.Is(err, user.ErrPasswordMismatch),
		errors.Is(err, voucherlog.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, user.ErrInactive):
		return http.StatusForbidden
	}
	return 0
}

// respondServiceError writes err as an API error. Known service errors keep
// their message; anything else is logged and replaced by a safe message.
func respondServiceError(w http.ResponseWriter, err error, op string) {
	status := statusFor(err)
	if status == 0 {
		respondSafeError(w, http.StatusInternalServerError, err, op)
		return
	}
	var ves validate.Errors
	if errors.As(err, &ves) {
		httputil.ErrorWithDetails(w, status, ves.Error(), httputil.CodeValidation, ves)
		return
	}
	httputil.Error(w, status, err.Error())
}

// respondSafeError logs the full internal error and sends a sanitized JSON
// error response to the client.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, op string) {
	if internalErr != nil {
		logger.Error("[api] request failed", "op", op, "status", code, "error", internalErr)
	}
	httputil.Error(w, code, safeErrorMessage(code, internalErr))
}

// safeErrorMessage maps common internal error patterns to public-safe messages.
// For 4xx errors the original message is returned; 5xx errors get a generic
// message.
func safeErrorMessage(code int, internalErr error) string {
	if code < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}

	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())

	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "query") ||
		strings.Contains(errStr, "scan") ||
		strings.Contains(errStr, "transaction") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"

	case strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "access denied"):
		return "Access denied"

	default:
		return "An internal error occurred"
	}
}
