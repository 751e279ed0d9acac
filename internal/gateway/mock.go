package gateway

import (
	"context"
	"encoding/json"
)

// MockProvider stands in for a real bank integration in development and
// tests. It never delivers an outcome on its own; the simulate-payment
// endpoint or the test driver does that.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() ProviderName {
	return ProviderMock
}

func (p *MockProvider) CreateCharge(_ context.Context, req ChargeRequest) (Charge, error) {
	payload, err := json.Marshal(map[string]any{
		"transaction_id": req.TransactionID,
		"amount":         req.Amount,
		"currency":       req.Currency,
	})
	if err != nil {
		return Charge{}, err
	}

	return Charge{
		TransactionID: req.TransactionID,
		QRPayload:     string(payload),
	}, nil
}
