package models

import "time"

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is one purchased unit. Issued only after payment success,
// exactly one row per unit.
type Ticket struct {
	ID           string       `json:"id"`
	OrderID      string       `json:"order_id"`
	TicketTypeID string       `json:"ticket_type_id"`
	Code         string       `json:"code"`
	Payload      string       `json:"payload"`
	Status       TicketStatus `json:"status"`
	Created      time.Time    `json:"created"`
}
