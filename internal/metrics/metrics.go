package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics, labeled by the route template rather than the raw
// path so cardinality stays bounded.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkhub_http_requests_total",
		Help: "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parkhub_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Domain metrics.
var (
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkhub_reservations_created_total",
		Help: "Reservations successfully created.",
	})

	ReservationsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkhub_reservations_finished_total",
		Help: "Reservations moved to a terminal state, by outcome.",
	}, []string{"outcome"})

	SlotConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkhub_reservation_slot_conflicts_total",
		Help: "Reservation attempts rejected by the overlap rule.",
	})

	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkhub_payments_processed_total",
		Help: "Payment attempts by outcome.",
	}, []string{"outcome"})

	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parkhub_sweep_duration_seconds",
		Help:    "Background sweep latency by sweep name.",
		Buckets: prometheus.DefBuckets,
	}, []string{"sweep"})

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parkhub_websocket_connections",
		Help: "Currently connected websocket clients.",
	})
)
