package services

import (
	"context"
	"log/slog"
	"time"

	"ticket-booking/internal/status"
	"ticket-booking/models"
	"ticket-booking/monitoring"
)

// ReservationService owns the hold state machine: it creates active holds
// against ledger capacity and transitions them to cancelled on request.
// Expiry belongs to the Reaper, completion to the OrderService.
type ReservationService struct {
	store   Store
	ledger  *Ledger
	gate    *AvailabilityGate // optional fast-fail front, may be nil
	holdTTL time.Duration
	now     func() time.Time
}

func NewReservationService(store Store, ledger *Ledger, gate *AvailabilityGate, holdTTL time.Duration) *ReservationService {
	return &ReservationService{
		store:   store,
		ledger:  ledger,
		gate:    gate,
		holdTTL: holdTTL,
		now:     time.Now,
	}
}

// Reserve places a time-bounded hold for the user against the ticket
// type's capacity, snapshotting the current unit price.
func (s *ReservationService) Reserve(ctx context.Context, userID, ticketTypeID string, quantity int) (models.Reservation, error) {
	if quantity <= 0 {
		return models.Reservation{}, status.ErrInvalidQuantity
	}

	gated := false
	if s.gate != nil {
		admitted, known, err := s.gate.TryAcquire(ctx, ticketTypeID, quantity)
		if err != nil {
			// The gate is advisory; a redis failure must not block sales.
			slog.Warn("availability gate unavailable", "ticket_type", ticketTypeID, "error", err)
		} else if known && !admitted {
			monitoring.TrackStockRejection(ticketTypeID)
			return models.Reservation{}, status.ErrInsufficientStock
		} else if known {
			gated = true
		}
	}

	var reservation models.Reservation
	err := s.store.RunInTransaction(ctx, func(tx Store) error {
		// Read the clock inside the transaction: admission and expiry
		// decisions must be ordered with the serialized commits.
		now := s.now()

		tt, err := s.ledger.TryReserve(ctx, tx, ticketTypeID, quantity, now)
		if err != nil {
			return err
		}

		reservation = models.Reservation{
			UserID:       userID,
			TicketTypeID: ticketTypeID,
			Quantity:     quantity,
			UnitPrice:    tt.Price,
			Status:       models.ReservationActive,
			ExpiresAt:    now.Add(s.holdTTL),
		}
		return tx.CreateReservation(ctx, &reservation)
	})
	if err != nil {
		if gated {
			s.gate.Release(ctx, ticketTypeID, quantity)
		}
		if err == status.ErrInsufficientStock {
			monitoring.TrackStockRejection(ticketTypeID)
		}
		return models.Reservation{}, err
	}

	monitoring.TrackReservation("created", ticketTypeID)
	slog.Info("hold created",
		"reservation", reservation.ID,
		"user", userID,
		"ticket_type", ticketTypeID,
		"quantity", quantity,
		"expires_at", reservation.ExpiresAt,
	)
	return reservation, nil
}

// Cancel transitions an active hold to cancelled, returning its quantity
// to the ledger immediately instead of waiting for the reaper.
func (s *ReservationService) Cancel(ctx context.Context, reservationID, requesterID string) error {
	reservation, err := s.store.ReservationByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation.UserID != requesterID {
		return status.ErrForbidden
	}
	if reservation.Status != models.ReservationActive {
		return status.ErrInvalidState
	}

	won, err := s.store.TransitionReservation(ctx, reservationID, models.ReservationActive, models.ReservationCancelled)
	if err != nil {
		return err
	}
	if !won {
		// Completed or expired concurrently.
		return status.ErrInvalidState
	}

	if s.gate != nil {
		s.gate.Release(ctx, reservation.TicketTypeID, reservation.Quantity)
	}

	monitoring.TrackReservation("cancelled", reservation.TicketTypeID)
	slog.Info("hold cancelled", "reservation", reservationID, "user", requesterID)
	return nil
}

// Get is a read-only lookup for presentation layers.
func (s *ReservationService) Get(ctx context.Context, reservationID string) (models.Reservation, error) {
	return s.store.ReservationByID(ctx, reservationID)
}

// History lists the user's recent holds, newest first.
func (s *ReservationService) History(ctx context.Context, userID string, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ReservationsByUser(ctx, userID, limit)
}

// Availability reports remaining sellable capacity, preferring the cached
// gate counter and falling back to the derived view.
func (s *ReservationService) Availability(ctx context.Context, ticketTypeID string) (int, error) {
	if s.gate != nil {
		if remaining, known, err := s.gate.Remaining(ctx, ticketTypeID); err == nil && known {
			return remaining, nil
		}
	}
	return s.ledger.Availability(ctx, s.store, ticketTypeID, s.now())
}
