package services

import (
	"context"
	"log/slog"
	"time"

	"ticket-booking/models"
	"ticket-booking/monitoring"
)

// Reaper sweeps holds whose deadline has passed and transitions them
// active -> expired, returning their quantity to the ledger. Correctness
// never depends on reaper timing: checkout and payment completion check
// the deadline themselves. The sweep only reclaims capacity.
type Reaper struct {
	store     Store
	gate      *AvailabilityGate // may be nil
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewReaper(store Store, gate *AvailabilityGate, interval time.Duration) *Reaper {
	return &Reaper{
		store:     store,
		gate:      gate,
		interval:  interval,
		batchSize: 200,
		now:       time.Now,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("reaper started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("reaper stopped")
			return
		case <-ticker.C:
			expired, err := r.Sweep(ctx)
			if err != nil {
				slog.Error("reaper sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				slog.Info("reaper sweep", "expired", expired)
			}
		}
	}
}

// Sweep expires one batch of stale holds. A failure on one hold is logged
// and counted but never blocks the rest of the batch; the hold stays
// active and is retried on the next sweep.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	stale, err := r.store.ExpiredActiveReservations(ctx, r.now(), r.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, hold := range stale {
		won, err := r.store.TransitionReservation(ctx, hold.ID, models.ReservationActive, models.ReservationExpired)
		if err != nil {
			monitoring.TrackReaperFailure()
			slog.Error("reaper failed to expire hold", "reservation", hold.ID, "error", err)
			continue
		}
		if !won {
			// Completed or cancelled while we were sweeping; nothing to do.
			continue
		}

		if r.gate != nil {
			r.gate.Release(ctx, hold.TicketTypeID, hold.Quantity)
		}
		monitoring.TrackReservation("expired", hold.TicketTypeID)
		expired++
	}
	return expired, nil
}
