package services

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/status"
	"ticket-booking/models"
)

// Ledger is the capacity accounting for ticket types. Admission is always
// decided against committed state re-read inside the caller's transaction;
// SQLite's single writer serializes concurrent admissions, so two holds
// whose combined quantity exceeds the remaining capacity can never both
// commit.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Available computes remaining sellable capacity from the derived view.
func Available(totalQuantity, heldActive, issued int) int {
	return totalQuantity - heldActive - issued
}

// TryReserve re-reads the committed hold and ticket sums for the ticket
// type through tx and admits the requested quantity, returning the ticket
// type row for price snapshotting. Must be called inside a transaction.
func (l *Ledger) TryReserve(ctx context.Context, tx Store, ticketTypeID string, quantity int, now time.Time) (models.TicketType, error) {
	tt, err := tx.TicketTypeByID(ctx, ticketTypeID)
	if err != nil {
		return models.TicketType{}, err
	}

	if quantity <= 0 {
		return models.TicketType{}, status.ErrInvalidQuantity
	}
	if tt.MaxPerOrder > 0 && quantity > tt.MaxPerOrder {
		return models.TicketType{}, status.ErrInvalidQuantity
	}

	held, err := tx.SumActiveHolds(ctx, ticketTypeID, now)
	if err != nil {
		return models.TicketType{}, fmt.Errorf("sum active holds: %w", err)
	}
	issued, err := tx.SumIssuedTickets(ctx, ticketTypeID)
	if err != nil {
		return models.TicketType{}, fmt.Errorf("sum issued tickets: %w", err)
	}

	if quantity > Available(tt.TotalQuantity, held, issued) {
		return models.TicketType{}, status.ErrInsufficientStock
	}

	return tt, nil
}

// Availability returns the current derived availability for a ticket type
// outside any admission path, for presentation and reconciliation.
func (l *Ledger) Availability(ctx context.Context, store Store, ticketTypeID string, now time.Time) (int, error) {
	tt, err := store.TicketTypeByID(ctx, ticketTypeID)
	if err != nil {
		return 0, err
	}
	held, err := store.SumActiveHolds(ctx, ticketTypeID, now)
	if err != nil {
		return 0, err
	}
	issued, err := store.SumIssuedTickets(ctx, ticketTypeID)
	if err != nil {
		return 0, err
	}
	return Available(tt.TotalQuantity, held, issued), nil
}
