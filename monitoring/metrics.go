package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Every booking state transition flows through one of the Track helpers
// below, which makes the whole hold/order/payment/ticket lifecycle
// observable from the metrics endpoint.
var (
	reservationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_transitions_total",
			Help: "Reservation state transitions (created, completed, expired, cancelled)",
		},
		[]string{"transition", "ticket_type"},
	)

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Order state transitions (created, paid, cancelled)",
		},
		[]string{"transition"},
	)

	paymentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_outcomes_total",
			Help: "Payment outcomes applied, deduplicated by transaction id",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued per ticket type",
		},
		[]string{"ticket_type"},
	)

	anomalies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_anomalies_total",
			Help: "Anomalies requiring operator attention (outcome conflicts, late success after expiry)",
		},
		[]string{"kind"},
	)

	reaperFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reaper_hold_failures_total",
			Help: "Holds the reaper failed to expire; retried next sweep",
		},
	)

	stockRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_rejections_total",
			Help: "Reserve attempts rejected for insufficient stock",
		},
		[]string{"ticket_type"},
	)
)

func TrackReservation(transition, ticketTypeID string) {
	reservationTransitions.WithLabelValues(transition, ticketTypeID).Inc()
}

func TrackOrder(transition string) {
	orderTransitions.WithLabelValues(transition).Inc()
}

func TrackPaymentOutcome(outcome string) {
	paymentOutcomes.WithLabelValues(outcome).Inc()
}

func TrackTicketsIssued(ticketTypeID string, count int) {
	ticketsIssued.WithLabelValues(ticketTypeID).Add(float64(count))
}

func TrackAnomaly(kind string) {
	anomalies.WithLabelValues(kind).Inc()
}

func TrackReaperFailure() {
	reaperFailures.Inc()
}

func TrackStockRejection(ticketTypeID string) {
	stockRejections.WithLabelValues(ticketTypeID).Inc()
}
