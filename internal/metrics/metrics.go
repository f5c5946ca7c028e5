package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Relay requests by outcome: provider, demo, rejected, failed
	RelayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pocketchat",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Total number of /chat requests by outcome",
		},
		[]string{"outcome"},
	)

	RelayReplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pocketchat",
			Subsystem: "relay",
			Name:      "reply_duration_seconds",
			Help:      "Time to produce a /chat reply",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"mode"},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pocketchat",
			Subsystem: "relay",
			Name:      "provider_errors_total",
			Help:      "Upstream completion failures that fell back to a demo reply",
		},
		[]string{"provider"},
	)

	EventPublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pocketchat",
			Subsystem: "relay",
			Name:      "event_publish_errors_total",
			Help:      "Usage events that could not be published",
		},
	)

	// Worker deliveries by status: stored, invalid, failed
	WorkerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pocketchat",
			Subsystem: "worker",
			Name:      "events_total",
			Help:      "Usage events handled by the worker",
		},
		[]string{"status"},
	)
)
