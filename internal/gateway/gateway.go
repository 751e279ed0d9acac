package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProviderName identifies a payment provider implementation.
type ProviderName string

const (
	ProviderMock ProviderName = "mock"
)

// ChargeRequest asks the provider to collect a payment. TransactionID is
// the engine's reference; the provider echoes it back in its outcome
// notification so the callback can be matched to the pending payment.
type ChargeRequest struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description,omitempty"`
}

// Charge is what the buyer is handed to complete the payment.
type Charge struct {
	TransactionID string `json:"transaction_id"`
	QRPayload     string `json:"qr_payload"`
	DeepLink      string `json:"deep_link,omitempty"`
}

// Provider is the common interface for payment providers. The outcome
// itself arrives asynchronously, over the webhook or the notification
// channel, never as a return value of CreateCharge.
type Provider interface {
	Name() ProviderName
	CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error)
}

// New builds the configured provider.
func New(name string) (Provider, error) {
	switch ProviderName(name) {
	case ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", name)
	}
}
