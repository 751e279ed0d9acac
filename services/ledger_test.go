package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-booking/internal/status"
	"ticket-booking/models"
)

func vipType(total, maxPerOrder int) models.TicketType {
	return models.TicketType{
		ID:            "tt-vip",
		EventID:       "event-1",
		Name:          "VIP",
		Price:         decimal.NewFromInt(150000),
		TotalQuantity: total,
		MaxPerOrder:   maxPerOrder,
	}
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, 100, Available(100, 0, 0))
	assert.Equal(t, 60, Available(100, 30, 10))
	assert.Equal(t, 0, Available(100, 90, 10))
	assert.Equal(t, -5, Available(100, 95, 10))
}

func TestLedgerTryReserve(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	ledger := NewLedger()

	t.Run("admits within capacity", func(t *testing.T) {
		store := newFakeStore(vipType(10, 0))

		tt, err := ledger.TryReserve(ctx, store, "tt-vip", 4, now)
		require.NoError(t, err)
		assert.Equal(t, "tt-vip", tt.ID)
		assert.True(t, tt.Price.Equal(decimal.NewFromInt(150000)))
	})

	t.Run("counts active holds against capacity", func(t *testing.T) {
		store := newFakeStore(vipType(10, 0))
		require.NoError(t, store.CreateReservation(ctx, &models.Reservation{
			UserID:       "u-1",
			TicketTypeID: "tt-vip",
			Quantity:     7,
			Status:       models.ReservationActive,
			ExpiresAt:    now.Add(10 * time.Minute),
		}))

		_, err := ledger.TryReserve(ctx, store, "tt-vip", 4, now)
		assert.ErrorIs(t, err, status.ErrInsufficientStock)

		_, err = ledger.TryReserve(ctx, store, "tt-vip", 3, now)
		assert.NoError(t, err)
	})

	t.Run("expired holds do not count", func(t *testing.T) {
		store := newFakeStore(vipType(10, 0))
		require.NoError(t, store.CreateReservation(ctx, &models.Reservation{
			UserID:       "u-1",
			TicketTypeID: "tt-vip",
			Quantity:     7,
			Status:       models.ReservationActive,
			ExpiresAt:    now.Add(-time.Minute),
		}))

		_, err := ledger.TryReserve(ctx, store, "tt-vip", 10, now)
		assert.NoError(t, err)
	})

	t.Run("issued tickets count against capacity", func(t *testing.T) {
		store := newFakeStore(vipType(10, 0))
		for i := 0; i < 6; i++ {
			require.NoError(t, store.CreateTicket(ctx, &models.Ticket{
				OrderID:      "order-x",
				TicketTypeID: "tt-vip",
				Code:         "CODE" + string(rune('A'+i)),
				Status:       models.TicketActive,
			}))
		}

		_, err := ledger.TryReserve(ctx, store, "tt-vip", 5, now)
		assert.ErrorIs(t, err, status.ErrInsufficientStock)

		_, err = ledger.TryReserve(ctx, store, "tt-vip", 4, now)
		assert.NoError(t, err)
	})

	t.Run("rejects non positive quantity", func(t *testing.T) {
		store := newFakeStore(vipType(10, 0))

		_, err := ledger.TryReserve(ctx, store, "tt-vip", 0, now)
		assert.ErrorIs(t, err, status.ErrInvalidQuantity)

		_, err = ledger.TryReserve(ctx, store, "tt-vip", -2, now)
		assert.ErrorIs(t, err, status.ErrInvalidQuantity)
	})

	t.Run("enforces per order limit", func(t *testing.T) {
		store := newFakeStore(vipType(100, 4))

		_, err := ledger.TryReserve(ctx, store, "tt-vip", 5, now)
		assert.ErrorIs(t, err, status.ErrInvalidQuantity)

		_, err = ledger.TryReserve(ctx, store, "tt-vip", 4, now)
		assert.NoError(t, err)
	})

	t.Run("unknown ticket type", func(t *testing.T) {
		store := newFakeStore()

		_, err := ledger.TryReserve(ctx, store, "tt-missing", 1, now)
		assert.ErrorIs(t, err, status.ErrNotFound)
	})
}

func TestLedgerAvailability(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	ledger := NewLedger()

	store := newFakeStore(vipType(20, 0))
	require.NoError(t, store.CreateReservation(ctx, &models.Reservation{
		UserID:       "u-1",
		TicketTypeID: "tt-vip",
		Quantity:     5,
		Status:       models.ReservationActive,
		ExpiresAt:    now.Add(time.Hour),
	}))
	require.NoError(t, store.CreateTicket(ctx, &models.Ticket{
		OrderID:      "order-1",
		TicketTypeID: "tt-vip",
		Code:         "AAAA",
		Status:       models.TicketActive,
	}))

	available, err := ledger.Availability(ctx, store, "tt-vip", now)
	require.NoError(t, err)
	assert.Equal(t, 14, available)
}
