package status

import "errors"

// Engine error taxonomy. Handlers map these to HTTP responses; everything
// else is treated as an infrastructure failure and surfaced as retryable.
var (
	ErrInvalidQuantity        = errors.New("reservation: invalid quantity")
	ErrInsufficientStock      = errors.New("reservation: insufficient stock")
	ErrNotFound               = errors.New("record not found")
	ErrForbidden              = errors.New("requester does not own this record")
	ErrInvalidState           = errors.New("invalid state for requested transition")
	ErrReservationExpired     = errors.New("reservation: hold expired")
	ErrPaymentOutcomeConflict = errors.New("payment: conflicting outcome for terminal payment")
)
