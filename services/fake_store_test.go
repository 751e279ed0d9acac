package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ticket-booking/internal/status"
	"ticket-booking/models"
)

// fakeStore is an in-memory Store for service tests. Transactions are
// serialized on txMu, mirroring the single-writer discipline of the real
// store; individual operations take the data mutex.
type fakeStore struct {
	mu   sync.Mutex
	txMu sync.Mutex
	seq  int

	ticketTypes  map[string]models.TicketType
	reservations map[string]*models.Reservation
	orders       map[string]*models.Order
	orderItems   map[string]*models.OrderItem
	payments     map[string]*models.Payment
	tickets      map[string]*models.Ticket
}

func newFakeStore(ticketTypes ...models.TicketType) *fakeStore {
	f := &fakeStore{
		ticketTypes:  map[string]models.TicketType{},
		reservations: map[string]*models.Reservation{},
		orders:       map[string]*models.Order{},
		orderItems:   map[string]*models.OrderItem{},
		payments:     map[string]*models.Payment{},
		tickets:      map[string]*models.Ticket{},
	}
	for _, tt := range ticketTypes {
		f.ticketTypes[tt.ID] = tt
	}
	return f
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) RunInTransaction(_ context.Context, fn func(tx Store) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(f)
}

func (f *fakeStore) TicketTypeByID(_ context.Context, id string) (models.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tt, ok := f.ticketTypes[id]
	if !ok {
		return models.TicketType{}, status.ErrNotFound
	}
	return tt, nil
}

func (f *fakeStore) TicketTypeIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.ticketTypes))
	for id := range f.ticketTypes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) SumActiveHolds(_ context.Context, ticketTypeID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, r := range f.reservations {
		if r.TicketTypeID == ticketTypeID && r.Status == models.ReservationActive && r.ExpiresAt.After(now) {
			total += r.Quantity
		}
	}
	return total, nil
}

func (f *fakeStore) SumIssuedTickets(_ context.Context, ticketTypeID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, t := range f.tickets {
		if t.TicketTypeID == ticketTypeID {
			total++
		}
	}
	return total, nil
}

func (f *fakeStore) CreateReservation(_ context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.nextID("res")
	r.Created = time.Now()
	r.Updated = r.Created
	clone := *r
	f.reservations[r.ID] = &clone
	return nil
}

func (f *fakeStore) ReservationByID(_ context.Context, id string) (models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return models.Reservation{}, status.ErrNotFound
	}
	return *r, nil
}

func (f *fakeStore) ReservationsByUser(_ context.Context, userID string, limit int) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.reservations {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) TransitionReservation(_ context.Context, id string, from, to models.ReservationStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return false, nil
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	r.Updated = time.Now()
	return true, nil
}

func (f *fakeStore) ExpiredActiveReservations(_ context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.reservations {
		if r.Status == models.ReservationActive && !r.ExpiresAt.After(now) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = f.nextID("order")
	o.Created = time.Now()
	o.Updated = o.Created
	clone := *o
	f.orders[o.ID] = &clone
	return nil
}

func (f *fakeStore) OrderByID(_ context.Context, id string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, status.ErrNotFound
	}
	return *o, nil
}

func (f *fakeStore) OrderByReservationID(_ context.Context, reservationID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ReservationID == reservationID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) OrdersByUser(_ context.Context, userID string, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) SetOrderStatus(_ context.Context, id string, s models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return status.ErrNotFound
	}
	o.Status = s
	o.Updated = time.Now()
	return nil
}

func (f *fakeStore) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.nextID("item")
	item.Created = time.Now()
	clone := *item
	f.orderItems[item.ID] = &clone
	return nil
}

func (f *fakeStore) OrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderItem
	for _, item := range f.orderItems {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.TransactionID == p.TransactionID {
			return fmt.Errorf("duplicate transaction id %s", p.TransactionID)
		}
	}
	p.ID = f.nextID("pay")
	p.Created = time.Now()
	p.Updated = p.Created
	clone := *p
	f.payments[p.ID] = &clone
	return nil
}

func (f *fakeStore) PaymentByTransactionID(_ context.Context, transactionID string) (models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.TransactionID == transactionID {
			return *p, nil
		}
	}
	return models.Payment{}, status.ErrNotFound
}

func (f *fakeStore) PaymentByOrderID(_ context.Context, orderID string) (models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.OrderID == orderID {
			return *p, nil
		}
	}
	return models.Payment{}, status.ErrNotFound
}

func (f *fakeStore) SetPaymentStatus(_ context.Context, id string, s models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return status.ErrNotFound
	}
	p.Status = s
	p.Updated = time.Now()
	return nil
}

func (f *fakeStore) CreateTicket(_ context.Context, t *models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tickets {
		if existing.Code == t.Code {
			return fmt.Errorf("duplicate ticket code %s", t.Code)
		}
	}
	t.ID = f.nextID("ticket")
	t.Created = time.Now()
	clone := *t
	f.tickets[t.ID] = &clone
	return nil
}

func (f *fakeStore) TicketsByOrder(_ context.Context, orderID string) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Ticket
	for _, t := range f.tickets {
		if t.OrderID == orderID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) TicketsByOrderAndType(_ context.Context, orderID, ticketTypeID string) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Ticket
	for _, t := range f.tickets {
		if t.OrderID == orderID && t.TicketTypeID == ticketTypeID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
