package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Terminal reports whether the payment already received an outcome.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentPending
}

// PaymentOutcome is what the gateway delivers, at least once.
type PaymentOutcome string

const (
	OutcomeSuccess PaymentOutcome = "success"
	OutcomeFailure PaymentOutcome = "failure"
)

type Payment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	TransactionID string          `json:"transaction_id"`
	Status        PaymentStatus   `json:"status"`
	Created       time.Time       `json:"created"`
	Updated       time.Time       `json:"updated"`
}
