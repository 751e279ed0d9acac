package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"

	"ticket-booking/models"
)

// OutcomeHandler is implemented by the order service.
type OutcomeHandler interface {
	OnPaymentOutcome(ctx context.Context, transactionID string, outcome models.PaymentOutcome, amount decimal.Decimal) error
}

// OutcomeNotification is the shape the bank publishes on the payment
// notification channel.
type OutcomeNotification struct {
	TransactionID string  `json:"transaction_id"`
	Outcome       string  `json:"outcome"`
	Amount        float64 `json:"amount"`
}

// OutcomeListener subscribes to the bank's notification channel and feeds
// every outcome into the handler. Delivery is at least once; the handler
// deduplicates on transaction id.
type OutcomeListener struct {
	pn      *pubnub.PubNub
	channel string
	handler OutcomeHandler
}

func NewOutcomeListener(pn *pubnub.PubNub, channel string, handler OutcomeHandler) *OutcomeListener {
	return &OutcomeListener{
		pn:      pn,
		channel: channel,
		handler: handler,
	}
}

// Listen blocks until the context is cancelled.
func (l *OutcomeListener) Listen(ctx context.Context) {
	listener := pubnub.NewListener()
	l.pn.AddListener(listener)

	l.pn.Subscribe().
		Channels([]string{l.channel}).
		Execute()
	defer l.pn.Unsubscribe().
		Channels([]string{l.channel}).
		Execute()

	slog.Info("payment outcome listener started", "channel", l.channel)
	for {
		select {
		case <-ctx.Done():
			slog.Info("payment outcome listener stopped")
			return
		case message := <-listener.Message:
			l.handleMessage(ctx, message)
		case s := <-listener.Status:
			if s.Error {
				slog.Error("pubnub status error", "category", s.Category, "messages", s.ErrorData)
			}
		}
	}
}

func (l *OutcomeListener) handleMessage(ctx context.Context, message *pubnub.PNMessage) {
	notification, err := ParseOutcome(message.Message)
	if err != nil {
		slog.Error("ignoring malformed payment notification", "error", err)
		return
	}

	outcome, err := MapOutcome(notification.Outcome)
	if err != nil {
		slog.Error("ignoring payment notification", "transaction_id", notification.TransactionID, "error", err)
		return
	}

	err = l.handler.OnPaymentOutcome(ctx, notification.TransactionID, outcome, decimal.NewFromFloat(notification.Amount))
	if err != nil {
		// Surfaced, never swallowed: conflicts and late successes need an
		// operator; infrastructure errors will be retried by the bank.
		slog.Error("payment outcome not applied",
			"transaction_id", notification.TransactionID,
			"outcome", notification.Outcome,
			"error", err,
		)
	}
}

// ParseOutcome decodes the loosely typed pubnub message payload.
func ParseOutcome(raw any) (OutcomeNotification, error) {
	data, ok := raw.(map[string]any)
	if !ok {
		return OutcomeNotification{}, fmt.Errorf("unexpected payload type %T", raw)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return OutcomeNotification{}, err
	}

	var notification OutcomeNotification
	if err := json.Unmarshal(jsonData, &notification); err != nil {
		return OutcomeNotification{}, err
	}
	if notification.TransactionID == "" {
		return OutcomeNotification{}, fmt.Errorf("missing transaction_id")
	}
	return notification, nil
}

// MapOutcome maps a delivered outcome string to the typed outcome.
// Unknown values are rejected, never defaulted: an outcome drives
// destructive state changes.
func MapOutcome(s string) (models.PaymentOutcome, error) {
	switch s {
	case "success":
		return models.OutcomeSuccess, nil
	case "failure", "failed":
		return models.OutcomeFailure, nil
	default:
		return "", fmt.Errorf("unknown outcome %q", s)
	}
}
