package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ticket-booking/internal/gateway"
	"ticket-booking/services"
)

type PaymentHandler struct {
	orders            *services.OrderService
	webhookSecretHash string
	webhookSigningKey []byte
	devMode           bool
}

func NewPaymentHandler(orders *services.OrderService, webhookSecretHash, webhookSigningKey string, devMode bool) *PaymentHandler {
	return &PaymentHandler{
		orders:            orders,
		webhookSecretHash: webhookSecretHash,
		webhookSigningKey: []byte(webhookSigningKey),
		devMode:           devMode,
	}
}

// Callback is the bank's webhook. Delivery is at least once; the order
// service deduplicates on transaction id, so a replayed notification is
// answered with 200 and no side effects.
func (h *PaymentHandler) Callback(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Unreadable body", err)
	}

	if h.webhookSecretHash != "" {
		secret := e.Request.Header.Get("X-Webhook-Secret")
		if !gateway.VerifySharedSecret(h.webhookSecretHash, secret) {
			slog.Error("webhook rejected: bad shared secret")
			return apis.NewUnauthorizedError("Unauthorized", nil)
		}
	}
	if len(h.webhookSigningKey) > 0 {
		signature := e.Request.Header.Get("X-Webhook-Signature")
		if !gateway.VerifySignature(body, signature, h.webhookSigningKey) {
			slog.Error("webhook rejected: bad body signature")
			return apis.NewUnauthorizedError("Unauthorized", nil)
		}
	}

	var notification gateway.OutcomeNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return apis.NewBadRequestError("Invalid notification", err)
	}
	if notification.TransactionID == "" {
		return apis.NewBadRequestError("Missing transaction_id", nil)
	}

	outcome, err := gateway.MapOutcome(notification.Outcome)
	if err != nil {
		return apis.NewBadRequestError("Unknown outcome", err)
	}

	err = h.orders.OnPaymentOutcome(
		e.Request.Context(),
		notification.TransactionID,
		outcome,
		decimal.NewFromFloat(notification.Amount),
	)
	if err != nil {
		// Includes the funds-captured-after-expiry case: the refund
		// happens out of band, the bank gets an explicit conflict so it
		// stops retrying.
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status exposes the payment state for a transaction id so the client
// can poll while waiting for the bank.
func (h *PaymentHandler) Status(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	transactionID := e.Request.PathValue("transactionId")
	detail, err := h.orders.PaymentStatus(e.Request.Context(), transactionID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, detail)
}

// Simulate drives a payment outcome by hand in development.
func (h *PaymentHandler) Simulate(e *core.RequestEvent) error {
	if !h.devMode {
		return apis.NewNotFoundError("Not found", nil)
	}

	var req struct {
		TransactionID string  `json:"transaction_id"`
		Outcome       string  `json:"outcome"`
		Amount        float64 `json:"amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	outcome, err := gateway.MapOutcome(req.Outcome)
	if err != nil {
		return apis.NewBadRequestError("Unknown outcome", err)
	}

	err = h.orders.OnPaymentOutcome(e.Request.Context(), req.TransactionID, outcome, decimal.NewFromFloat(req.Amount))
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "applied"})
}
