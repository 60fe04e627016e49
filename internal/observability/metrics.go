package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ride_guardian"

var (
	ActiveRides    = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "active_rides", Help: "Rides currently monitored"})
	RidesStarted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rides_started_total", Help: "Total rides started"})
	RidesCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rides_completed_total", Help: "Total rides ended with a report"})
	MonitorTicks   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "monitor_ticks_total", Help: "Background monitor ticks across all rides"})

	SafetyEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "safety_events_total", Help: "Safety events appended by type"},
		[]string{"type"},
	)
	RiskLevels = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "risk_assessments_total", Help: "Risk assessments by level"},
		[]string{"level"},
	)
	UnknownLocations = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "unknown_locations_total", Help: "Risk lookups that used the default location safety"})

	ClassifierFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "classifier_fallbacks_total", Help: "LLM calls that fell back to a deterministic answer"},
		[]string{"reason"},
	)
	ClassifierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "classifier_latency_seconds", Help: "Voice classification latency", Buckets: prometheus.DefBuckets},
		[]string{"classifier"},
	)

	NotifierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifier_failures_total", Help: "Safety event notifications that failed"},
		[]string{"notifier"},
	)
	WSSubscribers     = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "ws_subscribers", Help: "Open websocket subscriptions"})
	DriverAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "driver_assignments_total", Help: "Driver assignments by strategy"},
		[]string{"strategy"},
	)
	ETAFallbacks = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "eta_fallbacks_total", Help: "Route estimates served by the fallback estimator"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
