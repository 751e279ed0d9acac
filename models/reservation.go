package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
	ReservationExpired   ReservationStatus = "expired"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a time-bounded hold against ticket-type capacity.
// It is never deleted, only transitioned out of active.
type Reservation struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	TicketTypeID string            `json:"ticket_type_id"`
	Quantity     int               `json:"quantity"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	Status       ReservationStatus `json:"status"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Created      time.Time         `json:"created"`
	Updated      time.Time         `json:"updated"`
}

// Expired reports whether the hold deadline has passed, regardless of
// whether the reaper got to it yet.
func (r Reservation) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
