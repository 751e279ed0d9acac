package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ticket-booking/internal/status"
	"ticket-booking/models"
	"ticket-booking/monitoring"
	"ticket-booking/utils"
)

// OrderService drives the hold -> order -> payment -> tickets state
// machine. Checkout turns an active hold into a pending order with a
// pending payment; the payment outcome callback finalizes or unwinds the
// whole group in one transaction.
type OrderService struct {
	store  Store
	issuer *TicketService
	gate   *AvailabilityGate // may be nil
	method string
	now    func() time.Time
}

func NewOrderService(store Store, issuer *TicketService, gate *AvailabilityGate, method string) *OrderService {
	return &OrderService{
		store:  store,
		issuer: issuer,
		gate:   gate,
		method: method,
		now:    time.Now,
	}
}

type CheckoutResult struct {
	Order   models.Order
	Payment models.Payment
}

// Checkout creates the pending order, its item snapshot, and the 1:1
// pending payment for an active, unexpired hold. The hold itself stays
// active, so its quantity remains counted against inventory until the
// payment resolves. Re-running checkout on the same hold returns the
// existing pending order.
func (s *OrderService) Checkout(ctx context.Context, reservationID, requesterID string) (CheckoutResult, error) {
	var result CheckoutResult
	created := false

	err := s.store.RunInTransaction(ctx, func(tx Store) error {
		now := s.now()

		reservation, err := tx.ReservationByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.UserID != requesterID {
			return status.ErrForbidden
		}

		if existing, err := tx.OrderByReservationID(ctx, reservationID); err != nil {
			return err
		} else if existing != nil {
			if existing.Status != models.OrderPending {
				return status.ErrInvalidState
			}
			payment, err := tx.PaymentByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			result = CheckoutResult{Order: *existing, Payment: payment}
			return nil
		}

		if reservation.Status != models.ReservationActive {
			return status.ErrInvalidState
		}
		if reservation.Expired(now) {
			return status.ErrReservationExpired
		}

		total := reservation.UnitPrice.Mul(decimal.NewFromInt(int64(reservation.Quantity)))

		order := models.Order{
			UserID:        reservation.UserID,
			ReservationID: reservation.ID,
			TotalAmount:   total,
			Status:        models.OrderPending,
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}

		item := models.OrderItem{
			OrderID:      order.ID,
			TicketTypeID: reservation.TicketTypeID,
			Quantity:     reservation.Quantity,
			UnitPrice:    reservation.UnitPrice,
		}
		if err := tx.CreateOrderItem(ctx, &item); err != nil {
			return err
		}

		transactionID, err := utils.GenerateCode(12)
		if err != nil {
			return err
		}
		payment := models.Payment{
			OrderID:       order.ID,
			Amount:        total,
			Method:        s.method,
			TransactionID: transactionID,
			Status:        models.PaymentPending,
		}
		if err := tx.CreatePayment(ctx, &payment); err != nil {
			return err
		}

		result = CheckoutResult{Order: order, Payment: payment}
		created = true
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	if created {
		monitoring.TrackOrder("created")
		slog.Info("checkout created order",
			"order", result.Order.ID,
			"reservation", reservationID,
			"transaction_id", result.Payment.TransactionID,
		)
	}
	return result, nil
}

// OnPaymentOutcome applies a gateway outcome, keyed on transaction id.
// Delivery is at least once: re-delivery of the same terminal outcome is
// a no-op, a conflicting outcome for a terminal payment is a reported
// anomaly. A success arriving after the hold expired is recorded (funds
// were captured) but rejected with ErrReservationExpired so the refund
// reconciliation path sees it.
func (s *OrderService) OnPaymentOutcome(ctx context.Context, transactionID string, outcome models.PaymentOutcome, amount decimal.Decimal) error {
	// Captured inside the transaction, acted on after commit.
	var (
		resultErr    error
		releaseTT    string
		releaseQty   int
		issuedCounts = map[string]int{}
		orderPaid    bool
		orderVoided  bool
	)

	err := s.store.RunInTransaction(ctx, func(tx Store) error {
		// Read the clock inside the transaction so the expiry decision is
		// ordered with the serialized commits: a delivery delayed past the
		// deadline cannot complete a hold whose quantity a later Reserve
		// already re-admitted.
		now := s.now()

		payment, err := tx.PaymentByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}

		if payment.Status.Terminal() {
			resultErr = s.terminalRedelivery(ctx, tx, payment, outcome)
			return nil
		}

		if !amount.IsZero() && !amount.Equal(payment.Amount) {
			monitoring.TrackAnomaly("amount_mismatch")
			slog.Error("payment outcome amount mismatch",
				"transaction_id", transactionID,
				"expected", payment.Amount,
				"got", amount,
			)
		}

		order, err := tx.OrderByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}

		if outcome == models.OutcomeFailure {
			if err := tx.SetPaymentStatus(ctx, payment.ID, models.PaymentFailed); err != nil {
				return err
			}
			if err := tx.SetOrderStatus(ctx, order.ID, models.OrderCancelled); err != nil {
				return err
			}
			won, err := tx.TransitionReservation(ctx, order.ReservationID, models.ReservationActive, models.ReservationCancelled)
			if err != nil {
				return err
			}
			if won {
				reservation, err := tx.ReservationByID(ctx, order.ReservationID)
				if err != nil {
					return err
				}
				releaseTT, releaseQty = reservation.TicketTypeID, reservation.Quantity
				monitoring.TrackReservation("cancelled", reservation.TicketTypeID)
			}
			orderVoided = true
			return nil
		}

		// Success path. The hold must still be active and unexpired; the
		// conditional transition loses exactly when the reaper, a cancel,
		// or a concurrent completion got there first.
		reservation, err := tx.ReservationByID(ctx, order.ReservationID)
		if err != nil {
			return err
		}

		completed := false
		if !reservation.Expired(now) {
			completed, err = tx.TransitionReservation(ctx, order.ReservationID, models.ReservationActive, models.ReservationCompleted)
			if err != nil {
				return err
			}
		}

		if !completed {
			// Late success: the one race the design accepts. Record the
			// captured payment, void the order, surface the refund case.
			if err := tx.SetPaymentStatus(ctx, payment.ID, models.PaymentSuccess); err != nil {
				return err
			}
			if err := tx.SetOrderStatus(ctx, order.ID, models.OrderCancelled); err != nil {
				return err
			}
			orderVoided = true
			resultErr = status.ErrReservationExpired
			return nil
		}

		if err := tx.SetPaymentStatus(ctx, payment.ID, models.PaymentSuccess); err != nil {
			return err
		}
		if err := tx.SetOrderStatus(ctx, order.ID, models.OrderPaid); err != nil {
			return err
		}

		items, err := tx.OrderItems(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			tickets, err := s.issuer.Issue(ctx, tx, order.ID, item.TicketTypeID, item.Quantity)
			if err != nil {
				return err
			}
			issuedCounts[item.TicketTypeID] = len(tickets)
		}

		monitoring.TrackReservation("completed", reservation.TicketTypeID)
		orderPaid = true
		return nil
	})
	if err != nil {
		return err
	}

	switch {
	case orderPaid:
		monitoring.TrackPaymentOutcome("success")
		monitoring.TrackOrder("paid")
		for tt, n := range issuedCounts {
			monitoring.TrackTicketsIssued(tt, n)
		}
		slog.Info("payment completed", "transaction_id", transactionID)
	case orderVoided && resultErr == status.ErrReservationExpired:
		monitoring.TrackPaymentOutcome("success")
		monitoring.TrackAnomaly("late_success_after_expiry")
		slog.Error("payment succeeded after hold expired, refund required",
			"transaction_id", transactionID,
		)
	case orderVoided:
		monitoring.TrackPaymentOutcome("failure")
		monitoring.TrackOrder("cancelled")
		if releaseQty > 0 && s.gate != nil {
			s.gate.Release(ctx, releaseTT, releaseQty)
		}
		slog.Info("payment failed, hold released", "transaction_id", transactionID)
	default:
		monitoring.TrackPaymentOutcome("duplicate")
	}

	return resultErr
}

// terminalRedelivery resolves an outcome delivered for a payment that is
// already terminal. Matching outcome: no-op, except that a success whose
// order was voided keeps reporting the refund case. Conflicting outcome:
// reported anomaly.
func (s *OrderService) terminalRedelivery(ctx context.Context, tx Store, payment models.Payment, outcome models.PaymentOutcome) error {
	matches := (outcome == models.OutcomeSuccess && payment.Status == models.PaymentSuccess) ||
		(outcome == models.OutcomeFailure && payment.Status == models.PaymentFailed)
	if !matches {
		monitoring.TrackAnomaly("outcome_conflict")
		slog.Error("conflicting outcome for terminal payment",
			"transaction_id", payment.TransactionID,
			"recorded", payment.Status,
			"delivered", outcome,
		)
		return status.ErrPaymentOutcomeConflict
	}

	if payment.Status == models.PaymentSuccess {
		order, err := tx.OrderByID(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderCancelled {
			return status.ErrReservationExpired
		}
	}
	return nil
}

// PaymentStatus looks up a payment by transaction id for its buyer.
func (s *OrderService) PaymentStatus(ctx context.Context, transactionID, requesterID string) (models.Payment, error) {
	payment, err := s.store.PaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return models.Payment{}, err
	}
	order, err := s.store.OrderByID(ctx, payment.OrderID)
	if err != nil {
		return models.Payment{}, err
	}
	if order.UserID != requesterID {
		return models.Payment{}, status.ErrForbidden
	}
	return payment, nil
}

type OrderDetail struct {
	Order   models.Order
	Items   []models.OrderItem
	Payment models.Payment
	Tickets []models.Ticket
}

// Detail assembles an order with its items, payment, and tickets for
// presentation. Only the buyer may read it.
func (s *OrderService) Detail(ctx context.Context, orderID, requesterID string) (OrderDetail, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	if order.UserID != requesterID {
		return OrderDetail{}, status.ErrForbidden
	}

	items, err := s.store.OrderItems(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	payment, err := s.store.PaymentByOrderID(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	tickets, err := s.store.TicketsByOrder(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}

	return OrderDetail{Order: order, Items: items, Payment: payment, Tickets: tickets}, nil
}

// History lists the user's orders, newest first.
func (s *OrderService) History(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.OrdersByUser(ctx, userID, limit)
}
