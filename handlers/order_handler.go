package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-booking/internal/gateway"
	"ticket-booking/services"
)

type OrderHandler struct {
	orders   *services.OrderService
	provider gateway.Provider
	currency string
}

func NewOrderHandler(orders *services.OrderService, provider gateway.Provider, currency string) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		provider: provider,
		currency: currency,
	}
}

// Checkout converts an active hold into a pending order and asks the
// payment provider for a charge the buyer can complete.
func (h *OrderHandler) Checkout(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reservationID := e.Request.PathValue("id")
	ctx := e.Request.Context()

	result, err := h.orders.Checkout(ctx, reservationID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	charge, err := h.provider.CreateCharge(ctx, gateway.ChargeRequest{
		TransactionID: result.Payment.TransactionID,
		Amount:        result.Payment.Amount,
		Currency:      h.currency,
		Description:   "ticket order " + result.Order.ID,
	})
	if err != nil {
		// The pending order survives; the buyer can retry checkout and
		// get a new charge for the same payment.
		slog.Error("create charge failed", "order", result.Order.ID, "error", err)
		return apis.NewApiError(503, "Payment provider unavailable, please retry", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order":   result.Order,
		"payment": result.Payment,
		"charge":  charge,
	})
}

// Detail returns an order with its items, payment, and tickets.
func (h *OrderHandler) Detail(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	detail, err := h.orders.Detail(e.Request.Context(), e.Request.PathValue("id"), e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order":   detail.Order,
		"items":   detail.Items,
		"payment": detail.Payment,
		"tickets": detail.Tickets,
	})
}

// History lists the caller's orders.
func (h *OrderHandler) History(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	orders, err := h.orders.History(e.Request.Context(), e.Auth.Id, 20)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, orders)
}
