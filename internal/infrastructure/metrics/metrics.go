package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pida",
			Subsystem: "prequal_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pida",
			Subsystem: "prequal_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	StreamChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pida",
			Subsystem: "prequal_api",
			Name:      "stream_chunks_total",
			Help:      "Generation chunks forwarded to clients",
		},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pida",
			Subsystem: "prequal_api",
			Name:      "generation_duration_seconds",
			Help:      "Model generation session duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	AnalysisSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pida",
			Subsystem: "prequal_api",
			Name:      "analysis_saves_total",
			Help:      "Background persistence attempts for completed analyses",
		},
		[]string{"status"},
	)

	SaveQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pida",
			Subsystem: "prequal_api",
			Name:      "save_queue_depth",
			Help:      "Pending background persistence tasks",
		},
	)

	SubscriptionSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pida",
			Subsystem: "prequal_api",
			Name:      "subscription_sync_total",
			Help:      "Stripe subscription webhook events processed",
		},
		[]string{"event", "status"},
	)
)
