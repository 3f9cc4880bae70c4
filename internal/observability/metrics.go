package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "orders_created_total", Help: "Total orders created"})
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "order_transitions_total", Help: "Successful order state transitions"},
		[]string{"status"},
	)
	TransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "transition_conflicts_total", Help: "Transitions lost to a concurrent writer"})

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "events_published_total", Help: "Events published to the bus"},
		[]string{"type"},
	)
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "events_dropped_total", Help: "Events dropped on full subscriber buffers"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_hail", Name: "ws_connections", Help: "Live realtime connections"})
	DriversOnline = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_hail", Name: "drivers_online", Help: "Drivers currently reporting online"})

	CodesIssued = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "otp_codes_issued_total", Help: "One-time codes issued"})
	CodesFailed = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "otp_delivery_failures_total", Help: "One-time code delivery failures"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_hail",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
