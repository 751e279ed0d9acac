package handlers

import (
	"github.com/pocketbase/pocketbase/apis"

	"ticket-booking/internal/status"
)

// apiError maps engine errors to transport errors. Anything outside the
// taxonomy is an infrastructure failure and surfaced as retryable.
func apiError(err error) error {
	switch err {
	case status.ErrInvalidQuantity:
		return apis.NewBadRequestError("Invalid quantity", err)
	case status.ErrInsufficientStock:
		// Normal business outcome: sold out for this window.
		return apis.NewApiError(409, "Insufficient stock", err)
	case status.ErrNotFound:
		return apis.NewNotFoundError("Not found", err)
	case status.ErrForbidden:
		return apis.NewForbiddenError("Access denied", err)
	case status.ErrInvalidState:
		return apis.NewApiError(409, "Invalid state for this operation", err)
	case status.ErrReservationExpired:
		return apis.NewApiError(409, "Your hold expired, please retry", err)
	case status.ErrPaymentOutcomeConflict:
		return apis.NewApiError(409, "Conflicting payment outcome", err)
	default:
		return apis.NewApiError(503, "Temporarily unavailable, please retry", err)
	}
}
