package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketpro_reservations_total",
			Help: "Ticket reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	paymentEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketpro_payment_events_total",
			Help: "Inbound payment notifications by status and outcome",
		},
		[]string{"status", "outcome"},
	)

	gateScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketpro_gate_scans_total",
			Help: "Venue gate operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

func TrackReservation(outcome string) {
	reservationsTotal.WithLabelValues(outcome).Inc()
}

func TrackPaymentEvent(status, outcome string) {
	paymentEventsTotal.WithLabelValues(status, outcome).Inc()
}

func TrackGateScan(operation, outcome string) {
	gateScansTotal.WithLabelValues(operation, outcome).Inc()
}
