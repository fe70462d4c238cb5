package conflictkit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c0deZ3R0/go-conflict-kit/logging"
)

// DetectorBuilder provides a fluent interface for constructing Detector
// instances.
type DetectorBuilder struct {
	fetcher StampFetcher
	record  RecordIdentity
	options Options
	logger  *slog.Logger
	metrics MetricsCollector
	audit   ConflictLogger
	clock   func() time.Time
}

// NewDetectorBuilder creates a new builder with the notify preset as its
// starting configuration.
func NewDetectorBuilder() *DetectorBuilder {
	return &DetectorBuilder{
		options: PresetNotify(),
	}
}

// WithFetcher sets the backing-store stamp fetcher.
func (b *DetectorBuilder) WithFetcher(fetcher StampFetcher) *DetectorBuilder {
	b.fetcher = fetcher
	return b
}

// WithRecord binds the detector to a record identity.
func (b *DetectorBuilder) WithRecord(listID, itemID string) *DetectorBuilder {
	b.record = RecordIdentity{ListID: listID, ItemID: itemID}
	return b
}

// WithOptions replaces the full option set, typically with a preset.
func (b *DetectorBuilder) WithOptions(options Options) *DetectorBuilder {
	b.options = options
	return b
}

// WithOption applies a single option modifier on top of the current set.
func (b *DetectorBuilder) WithOption(opt Option) *DetectorBuilder {
	opt(&b.options)
	return b
}

// WithLogger sets the structured logger.
func (b *DetectorBuilder) WithLogger(logger *slog.Logger) *DetectorBuilder {
	b.logger = logger
	return b
}

// WithMetrics sets the metrics collector.
func (b *DetectorBuilder) WithMetrics(collector MetricsCollector) *DetectorBuilder {
	b.metrics = collector
	return b
}

// WithConflictLog attaches a conflict audit logger. Entries are written
// only when Options.LogConflicts is also set.
func (b *DetectorBuilder) WithConflictLog(audit ConflictLogger) *DetectorBuilder {
	b.audit = audit
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *DetectorBuilder) WithClock(clock func() time.Time) *DetectorBuilder {
	b.clock = clock
	return b
}

// Build creates a new Detector instance with the configured components.
func (b *DetectorBuilder) Build() (*Detector, error) {
	if b.fetcher == nil {
		return nil, fmt.Errorf("StampFetcher is required")
	}
	if b.record.ListID == "" {
		return nil, fmt.Errorf("record list ID is required")
	}
	if b.record.ItemID == "" {
		return nil, fmt.Errorf("record item ID is required")
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Default().Logger
	}

	metrics := b.metrics
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	options := b.options
	options.CheckInterval = clampInterval(options.CheckInterval)

	return &Detector{
		record:    b.record,
		fetcher:   b.fetcher,
		scheduler: newPollScheduler(),
		logger:    logger,
		metrics:   metrics,
		audit:     b.audit,
		now:       clock,
		options:   options,
	}, nil
}

// Reset clears the builder, allowing reuse.
func (b *DetectorBuilder) Reset() *DetectorBuilder {
	*b = DetectorBuilder{options: PresetNotify()}
	return b
}
