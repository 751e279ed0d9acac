package gateway

import (
	"context"

	"ticket-booking/utils"
)

// Resilient wraps a provider with a circuit breaker so a failing bank
// integration sheds load instead of piling up blocked checkouts.
type Resilient struct {
	provider Provider
	breaker  *utils.CircuitBreaker
}

func NewResilient(provider Provider) *Resilient {
	return &Resilient{
		provider: provider,
		breaker:  utils.NewCircuitBreaker(string(provider.Name())),
	}
}

func (r *Resilient) Name() ProviderName {
	return r.provider.Name()
}

func (r *Resilient) CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error) {
	result, err := r.breaker.Execute(ctx, func() (any, error) {
		return r.provider.CreateCharge(ctx, req)
	})
	if err != nil {
		return Charge{}, err
	}
	return result.(Charge), nil
}
