package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityGate keeps a denormalized "remaining" counter per ticket
// type in Redis. It is a fast-fail front for the transactional admission
// check, never a replacement: a missing or stale counter lets the request
// through to the authoritative ledger, and the reconciler periodically
// rewrites each counter from the derived view.
type AvailabilityGate struct {
	redis *redis.Client
	ttl   time.Duration
}

const gateKeyPrefix = "stock:remaining:"

// acquireScript conditionally decrements the counter. Returns -1 when the
// counter is unknown (caller falls through to the ledger), 0 when the
// request exceeds the cached remaining, 1 when admitted.
const acquireScript = `local remaining = redis.call('GET', KEYS[1])
if remaining == false then return -1 end
if tonumber(remaining) < tonumber(ARGV[1]) then return 0 end
redis.call('DECRBY', KEYS[1], ARGV[1])
return 1`

// releaseScript returns quantity to the counter only when it exists, so a
// release never resurrects an evicted key with a bogus value.
const releaseScript = `if redis.call('EXISTS', KEYS[1]) == 1 then
return redis.call('INCRBY', KEYS[1], ARGV[1]) end
return -1`

func NewAvailabilityGate(redisClient *redis.Client) *AvailabilityGate {
	return &AvailabilityGate{
		redis: redisClient,
		ttl:   5 * time.Minute,
	}
}

// TryAcquire attempts to take quantity from the cached counter.
// admitted=false with known=true means the gate rejected the request;
// known=false means the gate has no opinion.
func (g *AvailabilityGate) TryAcquire(ctx context.Context, ticketTypeID string, quantity int) (admitted, known bool, err error) {
	res, err := g.redis.Eval(ctx, acquireScript, []string{gateKeyPrefix + ticketTypeID}, quantity).Int()
	if err != nil {
		return false, false, fmt.Errorf("gate acquire: %w", err)
	}
	switch res {
	case 1:
		return true, true, nil
	case 0:
		return false, true, nil
	default:
		return false, false, nil
	}
}

// Release returns quantity to the counter after a cancel, expiry, or a
// failed admission that passed the gate.
func (g *AvailabilityGate) Release(ctx context.Context, ticketTypeID string, quantity int) {
	err := g.redis.Eval(ctx, releaseScript, []string{gateKeyPrefix + ticketTypeID}, quantity).Err()
	if err != nil {
		slog.Error("gate release failed", "ticket_type", ticketTypeID, "quantity", quantity, "error", err)
	}
}

// SetRemaining overwrites the counter from the authoritative derived view.
func (g *AvailabilityGate) SetRemaining(ctx context.Context, ticketTypeID string, remaining int) error {
	return g.redis.Set(ctx, gateKeyPrefix+ticketTypeID, remaining, g.ttl).Err()
}

// Remaining reads the cached counter. known=false when the key is absent.
func (g *AvailabilityGate) Remaining(ctx context.Context, ticketTypeID string) (remaining int, known bool, err error) {
	val, err := g.redis.Get(ctx, gateKeyPrefix+ticketTypeID).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// Reconciler periodically rewrites every gate counter from the ledger's
// derived view, healing drift from crashes between gate and store writes.
type Reconciler struct {
	store    Store
	ledger   *Ledger
	gate     *AvailabilityGate
	interval time.Duration
	now      func() time.Time
}

func NewReconciler(store Store, ledger *Ledger, gate *AvailabilityGate, interval time.Duration) *Reconciler {
	return &Reconciler{
		store:    store,
		ledger:   ledger,
		gate:     gate,
		interval: interval,
		now:      time.Now,
	}
}

// Run reconciles on a fixed interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.ReconcileAll(ctx); err != nil {
				slog.Error("gate reconcile failed", "error", err)
			}
		}
	}
}

func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	ids, err := r.store.TicketTypeIDs(ctx)
	if err != nil {
		return fmt.Errorf("list ticket types: %w", err)
	}

	for _, id := range ids {
		available, err := r.ledger.Availability(ctx, r.store, id, r.now())
		if err != nil {
			slog.Error("reconcile availability", "ticket_type", id, "error", err)
			continue
		}
		if err := r.gate.SetRemaining(ctx, id, available); err != nil {
			slog.Error("reconcile set remaining", "ticket_type", id, "error", err)
		}
	}
	return nil
}
