// Package prom provides a Prometheus-backed implementation of the
// conflictkit.MetricsCollector interface.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conflictkit_check_duration_seconds",
			Help:    "Duration of conflict check cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	conflictsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conflictkit_conflicts_detected_total",
			Help: "Total number of newly detected conflicts",
		},
	)

	conflictsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conflictkit_conflicts_resolved_total",
			Help: "Total number of conflicts cleared by re-baselining",
		},
	)

	checkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conflictkit_check_errors_total",
			Help: "Total number of failed checks",
		},
		[]string{"operation", "reason"},
	)
)

// Collector implements conflictkit.MetricsCollector on top of Prometheus.
type Collector struct{}

// NewCollector creates a Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (*Collector) RecordCheckDuration(op string, d time.Duration) {
	checkDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (*Collector) RecordConflictDetected() {
	conflictsDetected.Inc()
}

func (*Collector) RecordConflictResolved() {
	conflictsResolved.Inc()
}

func (*Collector) RecordCheckError(op, reason string) {
	checkErrors.WithLabelValues(op, reason).Inc()
}
