package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketType is the read-only capacity row the engine reserves against.
// Catalog management owns everything else about it.
type TicketType struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	TotalQuantity int             `json:"total_quantity"`
	MaxPerOrder   int             `json:"max_per_order"`
	Created       time.Time       `json:"created"`
	Updated       time.Time       `json:"updated"`
}
