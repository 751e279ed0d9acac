package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	ReservationID string          `json:"reservation_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	Created       time.Time       `json:"created"`
	Updated       time.Time       `json:"updated"`
}

// OrderItem snapshots one ticket type line of an order. Immutable once
// created; one row per distinct ticket type.
type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	TicketTypeID string          `json:"ticket_type_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Created      time.Time       `json:"created"`
}
