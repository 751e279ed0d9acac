package services

import (
	"context"
	"time"

	"ticket-booking/models"
)

// Store is the persistence boundary for the booking engine. The PocketBase
// implementation lives in pb_store.go; tests use the in-memory fake from
// fake_store_test.go.
//
// All coordination between concurrent requests is expressed through the
// persisted state transitions themselves: RunInTransaction serializes
// capacity admission, and TransitionReservation is a conditional update
// keyed on the expected current status, so at most one of
// {cancel, expire, complete} wins a race on the same hold.
type Store interface {
	// RunInTransaction runs fn against a transactional view of the store.
	// Any error rolls the whole unit back.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	TicketTypeByID(ctx context.Context, id string) (models.TicketType, error)
	TicketTypeIDs(ctx context.Context) ([]string, error)

	// SumActiveHolds returns the total quantity of active, unexpired holds
	// for the ticket type. SumIssuedTickets returns the number of tickets
	// ever issued for it. Together with the capacity ceiling they form the
	// ledger's derived availability.
	SumActiveHolds(ctx context.Context, ticketTypeID string, now time.Time) (int, error)
	SumIssuedTickets(ctx context.Context, ticketTypeID string) (int, error)

	CreateReservation(ctx context.Context, r *models.Reservation) error
	ReservationByID(ctx context.Context, id string) (models.Reservation, error)
	ReservationsByUser(ctx context.Context, userID string, limit int) ([]models.Reservation, error)
	// TransitionReservation atomically moves a reservation from one status
	// to another. Returns false without error when the reservation is no
	// longer in the expected status (lost race).
	TransitionReservation(ctx context.Context, id string, from, to models.ReservationStatus) (bool, error)
	// ExpiredActiveReservations lists holds still marked active whose
	// deadline has passed, oldest first.
	ExpiredActiveReservations(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error)

	CreateOrder(ctx context.Context, o *models.Order) error
	OrderByID(ctx context.Context, id string) (models.Order, error)
	OrderByReservationID(ctx context.Context, reservationID string) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID string, limit int) ([]models.Order, error)
	SetOrderStatus(ctx context.Context, id string, s models.OrderStatus) error

	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	OrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)

	CreatePayment(ctx context.Context, p *models.Payment) error
	PaymentByTransactionID(ctx context.Context, transactionID string) (models.Payment, error)
	PaymentByOrderID(ctx context.Context, orderID string) (models.Payment, error)
	SetPaymentStatus(ctx context.Context, id string, s models.PaymentStatus) error

	CreateTicket(ctx context.Context, t *models.Ticket) error
	TicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error)
	TicketsByOrderAndType(ctx context.Context, orderID, ticketTypeID string) ([]models.Ticket, error)
}
