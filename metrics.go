package conflictkit

import "time"

// MetricsCollector provides hooks for observability.
type MetricsCollector interface {
	// RecordCheckDuration records how long a check cycle took
	RecordCheckDuration(op string, d time.Duration)

	// RecordConflictDetected records a newly detected conflict
	RecordConflictDetected()

	// RecordConflictResolved records a conflict cleared by re-baselining
	RecordConflictResolved()

	// RecordCheckError records a failed check by operation and reason
	RecordCheckError(op, reason string)
}

// NoOpMetricsCollector is a stub implementation that discards metrics.
type NoOpMetricsCollector struct{}

func (*NoOpMetricsCollector) RecordCheckDuration(op string, d time.Duration) {}
func (*NoOpMetricsCollector) RecordConflictDetected()                        {}
func (*NoOpMetricsCollector) RecordConflictResolved()                        {}
func (*NoOpMetricsCollector) RecordCheckError(op, reason string)             {}
