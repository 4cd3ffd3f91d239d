package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gallery metrics
var (
	// Store operations by public operation name and outcome
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memo_gallery",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of media store operations",
		},
		[]string{"operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memo_gallery",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Media store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	// Media records whose category no longer exists, as of the last recount
	CategoryOrphans = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "memo_gallery",
			Subsystem: "store",
			Name:      "category_orphans",
			Help:      "Media records referencing a missing category at the last recount",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memo_gallery",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memo_gallery",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "route"},
	)
)

// ObserveStoreOperation records one store call.
func ObserveStoreOperation(operation string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
