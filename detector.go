package conflictkit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	detectErrors "github.com/c0deZ3R0/go-conflict-kit/errors"
)

// pollCheckTimeout bounds a single poll-driven check so a hung backing
// store cannot pin the busy guard forever.
const pollCheckTimeout = 30 * time.Second

// Detector watches a single record for concurrent modification. It owns the
// baseline snapshot, the detection state, and the poll scheduler; nothing
// else writes to any of them.
//
// Lifecycle: NewDetector → Initialize → any number of checks and snapshot
// updates, optionally with background polling → Dispose. A disposed
// detector rejects every operation with errors.ErrDisposed instead of
// panicking, so teardown in arbitrary order is always safe.
type Detector struct {
	record    RecordIdentity
	fetcher   StampFetcher
	snapshot  snapshotStore
	scheduler *pollScheduler
	logger    *slog.Logger
	metrics   MetricsCollector
	audit     ConflictLogger
	now       func() time.Time

	mu          sync.Mutex
	options     Options
	state       DetectionState
	subscribers []DetectionHooks
	initialized bool
	disposed    bool

	// epoch invalidates in-flight checks: a fetch that resolves after
	// Dispose (or after a newer cycle superseded it) must not touch state.
	epoch uint64
}

// NewDetector constructs a detector bound to one record. Misconfiguration
// (nil fetcher, empty identity) fails fast here: there is no valid
// partially-constructed detector to hand back.
func NewDetector(fetcher StampFetcher, listID, itemID string, options Options, opts ...Option) (*Detector, error) {
	b := NewDetectorBuilder().
		WithFetcher(fetcher).
		WithRecord(listID, itemID).
		WithOptions(options)
	for _, opt := range opts {
		b.WithOption(opt)
	}
	return b.Build()
}

// Record returns the identity of the watched record.
func (d *Detector) Record() RecordIdentity {
	return d.record
}

// Initialize fetches the current remote stamp and stores it as the baseline
// snapshot. Must complete before any check. Fails with a typed error when
// the backing store is unreachable or the record no longer exists.
func (d *Detector) Initialize(ctx context.Context) error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}
	d.mu.Unlock()

	stamp, err := d.fetcher.FetchStamp(ctx, d.record.ListID, d.record.ItemID)
	if err != nil {
		wrapped := detectErrors.Wrap(detectErrors.OpInitialize, err)
		d.logger.ErrorContext(ctx, "initialize failed",
			slog.String("list_id", d.record.ListID),
			slog.String("item_id", d.record.ItemID),
			slog.String("error", wrapped.Error()),
		)
		return wrapped
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return detectErrors.ErrDisposed
	}

	d.snapshot.Set(stamp)
	d.initialized = true
	d.state.Error = ""

	d.logger.DebugContext(ctx, "baseline snapshot captured",
		slog.String("list_id", d.record.ListID),
		slog.String("item_id", d.record.ItemID),
		slog.String("version", stamp.Version),
	)
	return nil
}

// CheckForConflicts fetches the current remote stamp, compares it against
// the baseline, and updates the detection state. Returns the updated
// conflict verdict.
//
// Edge-triggered: OnConflictDetected fires only when this check flags a
// conflict that was not already flagged. A fetch failure records
// state.Error and leaves the prior verdict intact; a transient failure
// never invalidates a known conflict, and the error is returned as a value
// rather than panicking, so a polling loop simply retries on its next tick.
//
// Overlapping calls coalesce: a check issued while another is in flight
// returns the current verdict without fetching, so the state never
// interleaves results from two fetches.
func (d *Detector) CheckForConflicts(ctx context.Context) (bool, error) {
	start := d.now()

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return false, detectErrors.ErrDisposed
	}
	if !d.initialized {
		d.mu.Unlock()
		return false, detectErrors.New(detectErrors.OpCheck, detectErrors.ErrNotInitialized)
	}
	if d.state.IsChecking {
		// Coalesce with the in-flight check.
		verdict := d.state.HasConflict
		d.mu.Unlock()
		return verdict, nil
	}
	d.state.IsChecking = true
	epoch := d.epoch
	d.mu.Unlock()

	baseline, _ := d.snapshot.Get()
	current, fetchErr := d.fetcher.FetchStamp(ctx, d.record.ListID, d.record.ItemID)

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return false, detectErrors.ErrDisposed
	}
	if d.epoch != epoch {
		// A re-baseline superseded this check while its fetch was in
		// flight; the comparison is against a stale baseline and must not
		// touch state. IsChecking is left alone: the superseding cycle
		// already cleared it, and a newer check may own it now.
		verdict := d.state.HasConflict
		d.mu.Unlock()
		return verdict, nil
	}
	d.state.IsChecking = false
	d.state.LastChecked = d.now()

	if fetchErr != nil {
		wrapped := detectErrors.Wrap(detectErrors.OpCheck, fetchErr)
		d.state.Error = wrapped.Error()
		verdict := d.state.HasConflict
		d.mu.Unlock()

		d.metrics.RecordCheckError(string(detectErrors.OpCheck), string(detectErrors.CodeOf(fetchErr)))
		d.logger.WarnContext(ctx, "conflict check failed",
			slog.String("list_id", d.record.ListID),
			slog.String("item_id", d.record.ItemID),
			slog.String("error", wrapped.Error()),
		)
		return verdict, wrapped
	}

	info := compareAt(d.now(), baseline, current, d.record)
	newlyDetected := info.HasConflict && !d.state.HasConflict

	d.state.Error = ""
	d.state.HasConflict = info.HasConflict
	d.state.ConflictInfo = info
	opts := d.options
	d.mu.Unlock()

	d.metrics.RecordCheckDuration(string(detectErrors.OpCheck), d.now().Sub(start))

	if newlyDetected {
		d.metrics.RecordConflictDetected()
		d.logger.InfoContext(ctx, "conflict detected",
			slog.String("list_id", d.record.ListID),
			slog.String("item_id", d.record.ItemID),
			slog.String("original_version", info.OriginalVersion),
			slog.String("current_version", info.CurrentVersion),
			slog.String("modified_by", info.LastModifiedBy.Name),
			slog.String("severity", string(info.Severity)),
		)
		d.logConflictDetected(ctx, opts, info)
		d.fireDetected(info)
	}

	return info.HasConflict, nil
}

// HasChangedSinceLastCheck reports whether the remote record diverged from
// the baseline without driving the state machine: only LastChecked is
// updated, conflict state is untouched, and no hooks fire.
func (d *Detector) HasChangedSinceLastCheck(ctx context.Context) (bool, error) {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return false, detectErrors.ErrDisposed
	}
	if !d.initialized {
		d.mu.Unlock()
		return false, detectErrors.New(detectErrors.OpCheck, detectErrors.ErrNotInitialized)
	}
	epoch := d.epoch
	d.mu.Unlock()

	baseline, _ := d.snapshot.Get()
	current, err := d.fetcher.FetchStamp(ctx, d.record.ListID, d.record.ItemID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return false, detectErrors.ErrDisposed
	}
	if d.epoch != epoch {
		// Superseded by a re-baseline; the comparison is stale.
		return false, nil
	}
	d.state.LastChecked = d.now()

	if err != nil {
		wrapped := detectErrors.Wrap(detectErrors.OpCheck, err)
		d.state.Error = wrapped.Error()
		return false, wrapped
	}

	return baseline.Version != current.Version, nil
}

// UpdateSnapshot re-fetches the current remote stamp and overwrites the
// baseline unconditionally, clearing any flagged conflict. This is the
// re-baselining step a resolution action ("reload latest" or "accept
// overwrite") performs. OnConflictResolved fires iff a conflict was
// previously flagged.
func (d *Detector) UpdateSnapshot(ctx context.Context) error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}
	epoch := d.epoch
	d.mu.Unlock()

	stamp, err := d.fetcher.FetchStamp(ctx, d.record.ListID, d.record.ItemID)

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}
	if d.epoch != epoch {
		// A concurrent re-baseline already won; this fetch is stale.
		d.mu.Unlock()
		return nil
	}

	if err != nil {
		wrapped := detectErrors.Wrap(detectErrors.OpUpdateSnapshot, err)
		d.state.Error = wrapped.Error()
		d.mu.Unlock()
		return wrapped
	}

	d.snapshot.Set(stamp)
	d.initialized = true
	// Invalidate any check whose fetch is still in flight: its comparison
	// against the superseded baseline must not land after this point.
	d.epoch++
	d.state.IsChecking = false
	wasConflicted := d.state.HasConflict
	d.state.HasConflict = false
	d.state.ConflictInfo = nil
	d.state.Error = ""
	opts := d.options
	d.mu.Unlock()

	d.logger.DebugContext(ctx, "baseline snapshot updated",
		slog.String("list_id", d.record.ListID),
		slog.String("item_id", d.record.ItemID),
		slog.String("version", stamp.Version),
	)

	if wasConflicted {
		d.metrics.RecordConflictResolved()
		d.logConflictResolved(ctx, opts)
		d.fireResolved()
	}

	return nil
}

// StartPolling begins background re-checks at the configured interval.
// A no-op when no CheckInterval is configured: polling is opt-in.
func (d *Detector) StartPolling() error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}
	interval := d.options.CheckInterval
	d.mu.Unlock()

	if interval <= 0 {
		return nil
	}

	d.scheduler.Start(interval, d.pollTick)
	d.logger.Debug("polling started",
		slog.String("list_id", d.record.ListID),
		slog.String("item_id", d.record.ItemID),
		slog.Duration("interval", d.scheduler.Interval()),
	)
	return nil
}

func (d *Detector) pollTick() {
	ctx, cancel := context.WithTimeout(context.Background(), pollCheckTimeout)
	defer cancel()

	// CheckForConflicts records and logs its own failures; recording here
	// as well would count a failed poll twice.
	_, _ = d.CheckForConflicts(ctx)
}

// StopPolling stops the background poll loop. Idempotent.
func (d *Detector) StopPolling() error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}
	d.mu.Unlock()

	d.scheduler.Stop()
	return nil
}

// PausePolling suspends future ticks without discarding the timer. An
// in-flight check is not cancelled; only future ticks are held back.
func (d *Detector) PausePolling() error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}
	d.mu.Unlock()

	d.scheduler.Pause()
	return nil
}

// ResumePolling restarts tick delivery; the next check happens one full
// interval from now, never immediately.
func (d *Detector) ResumePolling() error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}
	d.mu.Unlock()

	d.scheduler.Resume()
	return nil
}

// IsPollingActive reports whether the poll loop is running and not paused.
func (d *Detector) IsPollingActive() bool {
	return d.scheduler.Active()
}

// Subscribe attaches an additional observer. Hooks fire synchronously
// inside the operation that caused the transition.
func (d *Detector) Subscribe(hooks DetectionHooks) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return detectErrors.ErrDisposed
	}
	d.subscribers = append(d.subscribers, hooks)
	return nil
}

// Options returns the current configuration snapshot.
func (d *Detector) Options() Options {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.options
}

// UpdateOptions applies the given modifiers to a copy of the current
// options and swaps the whole value in, so configuration is never observed
// partially applied. A changed CheckInterval is propagated to a running
// poll loop immediately; setting it to zero stops the loop, matching
// zero's "polling disabled" meaning at construction.
func (d *Detector) UpdateOptions(opts ...Option) error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return detectErrors.ErrDisposed
	}

	updated := d.options
	for _, opt := range opts {
		opt(&updated)
	}
	updated.CheckInterval = clampInterval(updated.CheckInterval)
	intervalChanged := updated.CheckInterval != d.options.CheckInterval
	d.options = updated
	d.mu.Unlock()

	if intervalChanged {
		if updated.CheckInterval > 0 {
			d.scheduler.UpdateInterval(updated.CheckInterval)
		} else {
			d.scheduler.Stop()
		}
	}
	return nil
}

// State returns an immutable copy of the current detection state.
func (d *Detector) State() DetectionState {
	d.mu.Lock()
	state := d.state
	if state.ConflictInfo != nil {
		infoCopy := *state.ConflictInfo
		state.ConflictInfo = &infoCopy
	}
	d.mu.Unlock()

	state.IsPollingActive = d.scheduler.Active()
	return state
}

// Dispose stops polling, clears the snapshot, and transitions the detector
// to its terminal state. Idempotent and safe before Initialize. Any
// in-flight fetch's effect on state is cancelled: a fetch resolving after
// Dispose finds a bumped epoch and leaves state untouched.
func (d *Detector) Dispose() error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return nil
	}
	d.disposed = true
	d.epoch++
	d.state.IsChecking = false
	d.mu.Unlock()

	d.scheduler.Stop()
	d.snapshot.Clear()

	if d.audit != nil {
		if err := d.audit.Close(); err != nil {
			d.logger.Warn("conflict log close failed", slog.String("error", err.Error()))
		}
	}

	d.logger.Debug("detector disposed",
		slog.String("list_id", d.record.ListID),
		slog.String("item_id", d.record.ItemID),
	)
	return nil
}

func (d *Detector) logConflictDetected(ctx context.Context, opts Options, info *ConflictInfo) {
	if !opts.LogConflicts || d.audit == nil {
		return
	}
	if err := d.audit.LogDetected(ctx, info); err != nil {
		d.logger.Warn("conflict audit append failed", slog.String("error", err.Error()))
	}
}

func (d *Detector) logConflictResolved(ctx context.Context, opts Options) {
	if !opts.LogConflicts || d.audit == nil {
		return
	}
	if err := d.audit.LogResolved(ctx, d.record); err != nil {
		d.logger.Warn("conflict audit append failed", slog.String("error", err.Error()))
	}
}

// fireDetected delivers the detection event to the constructor callback and
// every subscriber, synchronously. A panicking listener is contained so it
// cannot corrupt detector state.
func (d *Detector) fireDetected(info *ConflictInfo) {
	d.mu.Lock()
	callback := d.options.OnConflictDetected
	subscribers := make([]DetectionHooks, len(d.subscribers))
	copy(subscribers, d.subscribers)
	d.mu.Unlock()

	if callback != nil {
		safeCall(func() { callback(info) })
	}
	for _, hooks := range subscribers {
		if hooks.OnConflictDetected != nil {
			fn := hooks.OnConflictDetected
			safeCall(func() { fn(info) })
		}
	}
}

func (d *Detector) fireResolved() {
	d.mu.Lock()
	callback := d.options.OnConflictResolved
	subscribers := make([]DetectionHooks, len(d.subscribers))
	copy(subscribers, d.subscribers)
	d.mu.Unlock()

	if callback != nil {
		safeCall(callback)
	}
	for _, hooks := range subscribers {
		if hooks.OnConflictResolved != nil {
			safeCall(hooks.OnConflictResolved)
		}
	}
}

func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
