package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"ticket-booking/internal/status"
	"ticket-booking/models"
)

// PBStore implements Store on top of the PocketBase app. Writes go through
// the app's serialized write connection, so a RunInTransaction group is
// atomic and admission checks inside it read committed state.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) RunInTransaction(_ context.Context, fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PBStore{app: txApp})
	})
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return status.ErrNotFound
	}
	return err
}

// --- ticket types ---

func (s *PBStore) TicketTypeByID(_ context.Context, id string) (models.TicketType, error) {
	rec, err := s.app.FindRecordById("ticket_types", id)
	if err != nil {
		return models.TicketType{}, mapNotFound(err)
	}
	return models.TicketType{
		ID:            rec.Id,
		EventID:       rec.GetString("event"),
		Name:          rec.GetString("name"),
		Price:         decimal.NewFromFloat(rec.GetFloat("price")),
		TotalQuantity: rec.GetInt("total_quantity"),
		MaxPerOrder:   rec.GetInt("max_per_order"),
		Created:       rec.GetDateTime("created").Time(),
		Updated:       rec.GetDateTime("updated").Time(),
	}, nil
}

func (s *PBStore) TicketTypeIDs(_ context.Context) ([]string, error) {
	var ids []string
	err := s.app.DB().
		Select("id").
		From("ticket_types").
		Column(&ids)
	return ids, err
}

func (s *PBStore) SumActiveHolds(_ context.Context, ticketTypeID string, now time.Time) (int, error) {
	nowDT, err := types.ParseDateTime(now.UTC())
	if err != nil {
		return 0, err
	}

	var total int
	err = s.app.DB().
		Select("COALESCE(SUM(quantity), 0)").
		From("order_reservations").
		Where(dbx.HashExp{"ticket_type": ticketTypeID, "status": string(models.ReservationActive)}).
		AndWhere(dbx.NewExp("expires_at > {:now}", dbx.Params{"now": nowDT.String()})).
		Row(&total)
	return total, err
}

func (s *PBStore) SumIssuedTickets(_ context.Context, ticketTypeID string) (int, error) {
	var total int
	err := s.app.DB().
		Select("COUNT(*)").
		From("tickets").
		Where(dbx.HashExp{"ticket_type": ticketTypeID}).
		Row(&total)
	return total, err
}

// --- reservations ---

func (s *PBStore) CreateReservation(_ context.Context, r *models.Reservation) error {
	collection, err := s.app.FindCollectionByNameOrId("order_reservations")
	if err != nil {
		return err
	}

	rec := core.NewRecord(collection)
	rec.Set("user", r.UserID)
	rec.Set("ticket_type", r.TicketTypeID)
	rec.Set("quantity", r.Quantity)
	rec.Set("unit_price", r.UnitPrice.InexactFloat64())
	rec.Set("status", string(r.Status))
	rec.Set("expires_at", r.ExpiresAt.UTC())

	if err := s.app.Save(rec); err != nil {
		return err
	}

	r.ID = rec.Id
	r.Created = rec.GetDateTime("created").Time()
	r.Updated = rec.GetDateTime("updated").Time()
	return nil
}

func recordToReservation(rec *core.Record) models.Reservation {
	return models.Reservation{
		ID:           rec.Id,
		UserID:       rec.GetString("user"),
		TicketTypeID: rec.GetString("ticket_type"),
		Quantity:     rec.GetInt("quantity"),
		UnitPrice:    decimal.NewFromFloat(rec.GetFloat("unit_price")),
		Status:       models.ReservationStatus(rec.GetString("status")),
		ExpiresAt:    rec.GetDateTime("expires_at").Time(),
		Created:      rec.GetDateTime("created").Time(),
		Updated:      rec.GetDateTime("updated").Time(),
	}
}

func (s *PBStore) ReservationByID(_ context.Context, id string) (models.Reservation, error) {
	rec, err := s.app.FindRecordById("order_reservations", id)
	if err != nil {
		return models.Reservation{}, mapNotFound(err)
	}
	return recordToReservation(rec), nil
}

func (s *PBStore) ReservationsByUser(_ context.Context, userID string, limit int) ([]models.Reservation, error) {
	recs, err := s.app.FindRecordsByFilter(
		"order_reservations",
		"user = {:user}",
		"-created",
		limit,
		0,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, err
	}

	reservations := make([]models.Reservation, 0, len(recs))
	for _, rec := range recs {
		reservations = append(reservations, recordToReservation(rec))
	}
	return reservations, nil
}

func (s *PBStore) TransitionReservation(_ context.Context, id string, from, to models.ReservationStatus) (bool, error) {
	res, err := s.app.DB().
		Update(
			"order_reservations",
			dbx.Params{"status": string(to), "updated": types.NowDateTime().String()},
			dbx.NewExp("id = {:id} AND status = {:from}", dbx.Params{"id": id, "from": string(from)}),
		).
		Execute()
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *PBStore) ExpiredActiveReservations(_ context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	nowDT, err := types.ParseDateTime(now.UTC())
	if err != nil {
		return nil, err
	}

	recs, err := s.app.FindRecordsByFilter(
		"order_reservations",
		"status = {:status} && expires_at <= {:now}",
		"+expires_at",
		limit,
		0,
		dbx.Params{"status": string(models.ReservationActive), "now": nowDT.String()},
	)
	if err != nil {
		return nil, err
	}

	reservations := make([]models.Reservation, 0, len(recs))
	for _, rec := range recs {
		reservations = append(reservations, recordToReservation(rec))
	}
	return reservations, nil
}

// --- orders ---

func (s *PBStore) CreateOrder(_ context.Context, o *models.Order) error {
	collection, err := s.app.FindCollectionByNameOrId("orders")
	if err != nil {
		return err
	}

	rec := core.NewRecord(collection)
	rec.Set("user", o.UserID)
	rec.Set("reservation", o.ReservationID)
	rec.Set("total_amount", o.TotalAmount.InexactFloat64())
	rec.Set("status", string(o.Status))

	if err := s.app.Save(rec); err != nil {
		return err
	}

	o.ID = rec.Id
	o.Created = rec.GetDateTime("created").Time()
	o.Updated = rec.GetDateTime("updated").Time()
	return nil
}

func recordToOrder(rec *core.Record) models.Order {
	return models.Order{
		ID:            rec.Id,
		UserID:        rec.GetString("user"),
		ReservationID: rec.GetString("reservation"),
		TotalAmount:   decimal.NewFromFloat(rec.GetFloat("total_amount")),
		Status:        models.OrderStatus(rec.GetString("status")),
		Created:       rec.GetDateTime("created").Time(),
		Updated:       rec.GetDateTime("updated").Time(),
	}
}

func (s *PBStore) OrderByID(_ context.Context, id string) (models.Order, error) {
	rec, err := s.app.FindRecordById("orders", id)
	if err != nil {
		return models.Order{}, mapNotFound(err)
	}
	return recordToOrder(rec), nil
}

func (s *PBStore) OrderByReservationID(_ context.Context, reservationID string) (*models.Order, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"orders",
		"reservation = {:reservation}",
		dbx.Params{"reservation": reservationID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	order := recordToOrder(rec)
	return &order, nil
}

func (s *PBStore) OrdersByUser(_ context.Context, userID string, limit int) ([]models.Order, error) {
	recs, err := s.app.FindRecordsByFilter(
		"orders",
		"user = {:user}",
		"-created",
		limit,
		0,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(recs))
	for _, rec := range recs {
		orders = append(orders, recordToOrder(rec))
	}
	return orders, nil
}

func (s *PBStore) SetOrderStatus(_ context.Context, id string, st models.OrderStatus) error {
	rec, err := s.app.FindRecordById("orders", id)
	if err != nil {
		return mapNotFound(err)
	}
	rec.Set("status", string(st))
	return s.app.Save(rec)
}

// --- order items ---

func (s *PBStore) CreateOrderItem(_ context.Context, item *models.OrderItem) error {
	collection, err := s.app.FindCollectionByNameOrId("order_items")
	if err != nil {
		return err
	}

	rec := core.NewRecord(collection)
	rec.Set("order", item.OrderID)
	rec.Set("ticket_type", item.TicketTypeID)
	rec.Set("quantity", item.Quantity)
	rec.Set("unit_price", item.UnitPrice.InexactFloat64())

	if err := s.app.Save(rec); err != nil {
		return err
	}

	item.ID = rec.Id
	item.Created = rec.GetDateTime("created").Time()
	return nil
}

func (s *PBStore) OrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	recs, err := s.app.FindRecordsByFilter(
		"order_items",
		"order = {:order}",
		"+created",
		0,
		0,
		dbx.Params{"order": orderID},
	)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, models.OrderItem{
			ID:           rec.Id,
			OrderID:      rec.GetString("order"),
			TicketTypeID: rec.GetString("ticket_type"),
			Quantity:     rec.GetInt("quantity"),
			UnitPrice:    decimal.NewFromFloat(rec.GetFloat("unit_price")),
			Created:      rec.GetDateTime("created").Time(),
		})
	}
	return items, nil
}

// --- payments ---

func (s *PBStore) CreatePayment(_ context.Context, p *models.Payment) error {
	collection, err := s.app.FindCollectionByNameOrId("payments")
	if err != nil {
		return err
	}

	rec := core.NewRecord(collection)
	rec.Set("order", p.OrderID)
	rec.Set("amount", p.Amount.InexactFloat64())
	rec.Set("method", p.Method)
	rec.Set("transaction_id", p.TransactionID)
	rec.Set("status", string(p.Status))

	if err := s.app.Save(rec); err != nil {
		return err
	}

	p.ID = rec.Id
	p.Created = rec.GetDateTime("created").Time()
	p.Updated = rec.GetDateTime("updated").Time()
	return nil
}

func recordToPayment(rec *core.Record) models.Payment {
	return models.Payment{
		ID:            rec.Id,
		OrderID:       rec.GetString("order"),
		Amount:        decimal.NewFromFloat(rec.GetFloat("amount")),
		Method:        rec.GetString("method"),
		TransactionID: rec.GetString("transaction_id"),
		Status:        models.PaymentStatus(rec.GetString("status")),
		Created:       rec.GetDateTime("created").Time(),
		Updated:       rec.GetDateTime("updated").Time(),
	}
}

func (s *PBStore) PaymentByTransactionID(_ context.Context, transactionID string) (models.Payment, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"payments",
		"transaction_id = {:tid}",
		dbx.Params{"tid": transactionID},
	)
	if err != nil {
		return models.Payment{}, mapNotFound(err)
	}
	return recordToPayment(rec), nil
}

func (s *PBStore) PaymentByOrderID(_ context.Context, orderID string) (models.Payment, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"payments",
		"order = {:order}",
		dbx.Params{"order": orderID},
	)
	if err != nil {
		return models.Payment{}, mapNotFound(err)
	}
	return recordToPayment(rec), nil
}

func (s *PBStore) SetPaymentStatus(_ context.Context, id string, st models.PaymentStatus) error {
	rec, err := s.app.FindRecordById("payments", id)
	if err != nil {
		return mapNotFound(err)
	}
	rec.Set("status", string(st))
	return s.app.Save(rec)
}

// --- tickets ---

func (s *PBStore) CreateTicket(_ context.Context, t *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return err
	}

	rec := core.NewRecord(collection)
	rec.Set("order", t.OrderID)
	rec.Set("ticket_type", t.TicketTypeID)
	rec.Set("code", t.Code)
	rec.Set("payload", t.Payload)
	rec.Set("status", string(t.Status))

	if err := s.app.Save(rec); err != nil {
		return err
	}

	t.ID = rec.Id
	t.Created = rec.GetDateTime("created").Time()
	return nil
}

func recordToTicket(rec *core.Record) models.Ticket {
	return models.Ticket{
		ID:           rec.Id,
		OrderID:      rec.GetString("order"),
		TicketTypeID: rec.GetString("ticket_type"),
		Code:         rec.GetString("code"),
		Payload:      rec.GetString("payload"),
		Status:       models.TicketStatus(rec.GetString("status")),
		Created:      rec.GetDateTime("created").Time(),
	}
}

func (s *PBStore) TicketsByOrder(_ context.Context, orderID string) ([]models.Ticket, error) {
	recs, err := s.app.FindRecordsByFilter(
		"tickets",
		"order = {:order}",
		"+created",
		0,
		0,
		dbx.Params{"order": orderID},
	)
	if err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, 0, len(recs))
	for _, rec := range recs {
		tickets = append(tickets, recordToTicket(rec))
	}
	return tickets, nil
}

func (s *PBStore) TicketsByOrderAndType(_ context.Context, orderID, ticketTypeID string) ([]models.Ticket, error) {
	recs, err := s.app.FindRecordsByFilter(
		"tickets",
		"order = {:order} && ticket_type = {:tt}",
		"+created",
		0,
		0,
		dbx.Params{"order": orderID, "tt": ticketTypeID},
	)
	if err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, 0, len(recs))
	for _, rec := range recs {
		tickets = append(tickets, recordToTicket(rec))
	}
	return tickets, nil
}
