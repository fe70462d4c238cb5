package conflictkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	detectErrors "github.com/c0deZ3R0/go-conflict-kit/errors"
)

// mockFetcher is a scripted StampFetcher for driving the detector through
// its scenarios.
type mockFetcher struct {
	mu    sync.Mutex
	stamp VersionStamp
	err   error
	calls int

	// block, when non-nil, makes FetchStamp wait until the channel is
	// closed. Used to simulate a slow backing store.
	block chan struct{}
}

func (m *mockFetcher) FetchStamp(ctx context.Context, listID, itemID string) (VersionStamp, error) {
	m.mu.Lock()
	m.calls++
	stamp := m.stamp
	err := m.err
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return VersionStamp{}, err
	}
	return stamp, nil
}

func (m *mockFetcher) setStamp(stamp VersionStamp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp = stamp
	m.err = nil
}

func (m *mockFetcher) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func stampV(version string, modified time.Time, by string) VersionStamp {
	return VersionStamp{
		Version:    version,
		Modified:   modified,
		ModifiedBy: Actor{Name: by, ContactID: by + "@example.test"},
	}
}

func newTestDetector(t *testing.T, fetcher *mockFetcher, options Options, now time.Time) *Detector {
	t.Helper()
	d, err := NewDetectorBuilder().
		WithFetcher(fetcher).
		WithRecord("tasks", "42").
		WithOptions(options).
		WithClock(func() time.Time { return now }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return d
}

func TestNewDetectorValidation(t *testing.T) {
	fetcher := &mockFetcher{}

	if _, err := NewDetector(nil, "tasks", "42", PresetNotify()); err == nil {
		t.Error("expected error for nil fetcher")
	}
	if _, err := NewDetector(fetcher, "", "42", PresetNotify()); err == nil {
		t.Error("expected error for empty list ID")
	}
	if _, err := NewDetector(fetcher, "tasks", "", PresetNotify()); err == nil {
		t.Error("expected error for empty item ID")
	}
	if _, err := NewDetector(fetcher, "tasks", "42", PresetNotify()); err != nil {
		t.Errorf("valid construction failed: %v", err)
	}
}

func TestCheckBeforeInitialize(t *testing.T) {
	fetcher := &mockFetcher{}
	d := newTestDetector(t, fetcher, PresetNotify(), time.Now())

	if _, err := d.CheckForConflicts(context.Background()); err == nil {
		t.Error("expected error when checking before Initialize")
	}
}

func TestInitializeFetchFailure(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.setError(detectErrors.NewFetchError(detectErrors.OpFetch, errors.New("connection refused")))
	d := newTestDetector(t, fetcher, PresetNotify(), time.Now())

	err := d.Initialize(context.Background())
	if err == nil {
		t.Fatal("expected Initialize to fail")
	}
	if detectErrors.CodeOf(err) != detectErrors.ErrCodeFetchFailed {
		t.Errorf("expected FETCH_FAILED, got %s", detectErrors.CodeOf(err))
	}
}

// Scenario A: remote unchanged, no conflict.
func TestCheckNoConflict(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))
	d := newTestDetector(t, fetcher, PresetNotify(), t0.Add(time.Minute))

	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	hasConflict, err := d.CheckForConflicts(context.Background())
	if err != nil {
		t.Fatalf("CheckForConflicts failed: %v", err)
	}
	if hasConflict {
		t.Error("expected no conflict for identical versions")
	}

	state := d.State()
	if state.HasConflict {
		t.Error("state.HasConflict should be false")
	}
	if state.ConflictInfo == nil {
		t.Fatal("ConflictInfo should be populated even without a conflict")
	}
	if state.ConflictInfo.OriginalVersion != "1" || state.ConflictInfo.CurrentVersion != "1" {
		t.Errorf("expected both versions populated, got %q/%q",
			state.ConflictInfo.OriginalVersion, state.ConflictInfo.CurrentVersion)
	}
	if state.LastChecked.IsZero() {
		t.Error("LastChecked should be set")
	}
}

// Scenario B: remote diverged, conflict detected and callback fired once.
func TestCheckDetectsConflict(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(30 * time.Second)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	var detected []*ConflictInfo
	options := PresetNotify()
	options.OnConflictDetected = func(info *ConflictInfo) {
		detected = append(detected, info)
	}

	d := newTestDetector(t, fetcher, options, t1.Add(10*time.Second))
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	fetcher.setStamp(stampV("2", t1, "Alice"))

	hasConflict, err := d.CheckForConflicts(context.Background())
	if err != nil {
		t.Fatalf("CheckForConflicts failed: %v", err)
	}
	if !hasConflict {
		t.Fatal("expected conflict for diverged versions")
	}

	if len(detected) != 1 {
		t.Fatalf("expected OnConflictDetected to fire once, fired %d times", len(detected))
	}
	info := detected[0]
	if info.LastModifiedBy.Name != "Alice" {
		t.Errorf("expected LastModifiedBy Alice, got %s", info.LastModifiedBy.Name)
	}
	if info.OriginalVersion != "1" || info.CurrentVersion != "2" {
		t.Errorf("unexpected versions %q/%q", info.OriginalVersion, info.CurrentVersion)
	}
	if info.Severity != SeverityHigh {
		t.Errorf("a 10s-old conflict should be high severity, got %s", info.Severity)
	}
}

// Idempotence: a repeat check with no remote change does not re-fire the
// callback and yields the same verdict.
func TestCheckEdgeTriggered(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	fired := 0
	options := PresetNotify()
	options.OnConflictDetected = func(*ConflictInfo) { fired++ }

	d := newTestDetector(t, fetcher, options, t0.Add(time.Hour))
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	fetcher.setStamp(stampV("2", t0.Add(time.Minute), "Alice"))

	first, err := d.CheckForConflicts(context.Background())
	if err != nil {
		t.Fatalf("first check failed: %v", err)
	}
	second, err := d.CheckForConflicts(context.Background())
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}

	if !first || !second {
		t.Errorf("both checks should report the conflict, got %v then %v", first, second)
	}
	if fired != 1 {
		t.Errorf("callback should fire exactly once, fired %d times", fired)
	}
}

// Scenario C: UpdateSnapshot re-baselines and clears the conflict.
func TestUpdateSnapshotClearsConflict(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	resolved := 0
	options := PresetNotify()
	options.OnConflictResolved = func() { resolved++ }

	d := newTestDetector(t, fetcher, options, t0.Add(time.Hour))
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	fetcher.setStamp(stampV("2", t0.Add(time.Minute), "Alice"))
	if hasConflict, _ := d.CheckForConflicts(context.Background()); !hasConflict {
		t.Fatal("expected conflict before re-baseline")
	}

	if err := d.UpdateSnapshot(context.Background()); err != nil {
		t.Fatalf("UpdateSnapshot failed: %v", err)
	}
	if resolved != 1 {
		t.Errorf("OnConflictResolved should fire exactly once, fired %d times", resolved)
	}

	state := d.State()
	if state.HasConflict {
		t.Error("HasConflict should be cleared after UpdateSnapshot")
	}
	if state.ConflictInfo != nil {
		t.Error("ConflictInfo should be cleared after UpdateSnapshot")
	}

	hasConflict, err := d.CheckForConflicts(context.Background())
	if err != nil {
		t.Fatalf("check after re-baseline failed: %v", err)
	}
	if hasConflict {
		t.Error("same remote version should no longer be a conflict after re-baseline")
	}
}

// UpdateSnapshot with no active conflict must not fire the resolved hook.
func TestUpdateSnapshotWithoutConflict(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	resolved := 0
	options := PresetNotify()
	options.OnConflictResolved = func() { resolved++ }

	d := newTestDetector(t, fetcher, options, t0)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := d.UpdateSnapshot(context.Background()); err != nil {
		t.Fatalf("UpdateSnapshot failed: %v", err)
	}
	if resolved != 0 {
		t.Errorf("OnConflictResolved must not fire without a prior conflict, fired %d times", resolved)
	}
}

// Scenario D: a transient fetch failure records the error and leaves the
// prior verdict intact.
func TestCheckFetchFailureKeepsVerdict(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	d := newTestDetector(t, fetcher, PresetNotify(), t0.Add(time.Hour))
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	fetcher.setStamp(stampV("2", t0.Add(time.Minute), "Alice"))
	if hasConflict, _ := d.CheckForConflicts(context.Background()); !hasConflict {
		t.Fatal("expected conflict")
	}

	fetcher.setError(detectErrors.NewFetchError(detectErrors.OpFetch, errors.New("gateway timeout")))

	hasConflict, err := d.CheckForConflicts(context.Background())
	if err == nil {
		t.Fatal("expected fetch failure to surface as an error value")
	}
	if !hasConflict {
		t.Error("a transient failure must not invalidate the prior verdict")
	}

	state := d.State()
	if state.Error == "" {
		t.Error("state.Error should be populated after a failed check")
	}
	if !state.HasConflict {
		t.Error("state.HasConflict should survive a failed check")
	}
	if state.IsChecking {
		t.Error("IsChecking should be reset after a failed check")
	}
}

// Scenario E: overlapping checks coalesce; only one fetch is in flight.
func TestOverlappingChecksCoalesce(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	d := newTestDetector(t, fetcher, PresetNotify(), t0)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	baseline := fetcher.callCount()

	block := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.block = block
	fetcher.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.CheckForConflicts(context.Background())
	}()

	// Wait for the first check's fetch to be in flight.
	deadline := time.After(2 * time.Second)
	for fetcher.callCount() == baseline {
		select {
		case <-deadline:
			t.Fatal("first check never reached the fetcher")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// A second check while the first is in flight must coalesce without
	// issuing another fetch.
	if _, err := d.CheckForConflicts(context.Background()); err != nil {
		t.Fatalf("coalesced check returned error: %v", err)
	}
	if got := fetcher.callCount(); got != baseline+1 {
		t.Errorf("expected exactly one in-flight fetch, observed %d", got-baseline)
	}

	close(block)
	<-done
}

// A re-baseline must invalidate a check whose fetch is still in flight:
// the stale comparison must neither resurrect a conflict nor fire hooks.
func TestUpdateSnapshotSupersedesInFlightCheck(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	fired := 0
	options := PresetNotify()
	options.OnConflictDetected = func(*ConflictInfo) { fired++ }

	d := newTestDetector(t, fetcher, options, t0)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	calls := fetcher.callCount()

	// Block the check's fetch while the remote moves to version 2.
	block := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.block = block
	fetcher.stamp = stampV("2", t0, "Alice")
	fetcher.mu.Unlock()

	verdicts := make(chan bool, 1)
	go func() {
		hasConflict, _ := d.CheckForConflicts(context.Background())
		verdicts <- hasConflict
	}()

	deadline := time.After(2 * time.Second)
	for fetcher.callCount() == calls {
		select {
		case <-deadline:
			t.Fatal("check never reached the fetcher")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Re-baseline to version 2 while the check's fetch is still blocked.
	fetcher.mu.Lock()
	fetcher.block = nil
	fetcher.mu.Unlock()
	if err := d.UpdateSnapshot(context.Background()); err != nil {
		t.Fatalf("UpdateSnapshot failed: %v", err)
	}

	close(block)
	if hasConflict := <-verdicts; hasConflict {
		t.Error("a superseded check must not report a conflict")
	}

	state := d.State()
	if state.HasConflict {
		t.Error("a stale fetch must not flag a conflict after a re-baseline")
	}
	if state.IsChecking {
		t.Error("IsChecking should be clear after the re-baseline")
	}
	if fired != 0 {
		t.Errorf("OnConflictDetected must not fire from a stale fetch, fired %d times", fired)
	}

	// The new baseline matches the remote; a fresh check agrees.
	hasConflict, err := d.CheckForConflicts(context.Background())
	if err != nil {
		t.Fatalf("check after re-baseline failed: %v", err)
	}
	if hasConflict {
		t.Error("remote version matches the new baseline")
	}
}

func TestDisposeCancelsInFlightCheck(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	d := newTestDetector(t, fetcher, PresetNotify(), t0)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	stateBefore := d.State()

	block := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.block = block
	fetcher.stamp = stampV("2", t0, "Alice")
	fetcher.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		_, err := d.CheckForConflicts(context.Background())
		errCh <- err
	}()

	deadline := time.After(2 * time.Second)
	for fetcher.callCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("check never reached the fetcher")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := d.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	close(block)

	if err := <-errCh; !errors.Is(err, detectErrors.ErrDisposed) {
		t.Errorf("in-flight check should resolve to ErrDisposed, got %v", err)
	}

	state := d.State()
	if state.HasConflict != stateBefore.HasConflict || state.LastChecked != stateBefore.LastChecked {
		t.Error("a fetch resolving after Dispose must not mutate state")
	}
}

func TestDisposeIdempotent(t *testing.T) {
	fetcher := &mockFetcher{}
	d := newTestDetector(t, fetcher, PresetNotify(), time.Now())

	// Safe before Initialize and safe to repeat.
	if err := d.Dispose(); err != nil {
		t.Fatalf("first Dispose failed: %v", err)
	}
	if err := d.Dispose(); err != nil {
		t.Fatalf("second Dispose failed: %v", err)
	}
}

func TestDisposedOperationsReturnFailure(t *testing.T) {
	t0 := time.Now()
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	d := newTestDetector(t, fetcher, PresetRealtime(), t0)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := d.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}

	if err := d.Initialize(context.Background()); !errors.Is(err, detectErrors.ErrDisposed) {
		t.Errorf("Initialize after dispose: got %v", err)
	}
	if _, err := d.CheckForConflicts(context.Background()); !errors.Is(err, detectErrors.ErrDisposed) {
		t.Errorf("CheckForConflicts after dispose: got %v", err)
	}
	if _, err := d.HasChangedSinceLastCheck(context.Background()); !errors.Is(err, detectErrors.ErrDisposed) {
		t.Errorf("HasChangedSinceLastCheck after dispose: got %v", err)
	}
	if err := d.UpdateSnapshot(context.Background()); !errors.Is(err, detectErrors.ErrDisposed) {
		t.Errorf("UpdateSnapshot after dispose: got %v", err)
	}
	if err := d.StartPolling(); !errors.Is(err, detectErrors.ErrDisposed) {
		t.Errorf("StartPolling after dispose: got %v", err)
	}
	if err := d.UpdateOptions(WithBlockSave(true)); !errors.Is(err, detectErrors.ErrDisposed) {
		t.Errorf("UpdateOptions after dispose: got %v", err)
	}
	if d.IsPollingActive() {
		t.Error("polling must be inactive after dispose")
	}
}

func TestHasChangedSinceLastCheck(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	fired := 0
	options := PresetNotify()
	options.OnConflictDetected = func(*ConflictInfo) { fired++ }

	d := newTestDetector(t, fetcher, options, t0.Add(time.Hour))
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	fetcher.setStamp(stampV("2", t0.Add(time.Minute), "Alice"))

	changed, err := d.HasChangedSinceLastCheck(context.Background())
	if err != nil {
		t.Fatalf("HasChangedSinceLastCheck failed: %v", err)
	}
	if !changed {
		t.Error("expected change to be reported")
	}

	state := d.State()
	if state.HasConflict {
		t.Error("HasChangedSinceLastCheck must not flag a conflict")
	}
	if state.ConflictInfo != nil {
		t.Error("HasChangedSinceLastCheck must not populate ConflictInfo")
	}
	if state.LastChecked.IsZero() {
		t.Error("LastChecked should still be updated")
	}
	if fired != 0 {
		t.Error("HasChangedSinceLastCheck must not fire hooks")
	}
}

func TestSubscribeMultipleListeners(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))

	d := newTestDetector(t, fetcher, PresetSilent(), t0.Add(time.Hour))
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var first, second int
	d.Subscribe(DetectionHooks{OnConflictDetected: func(*ConflictInfo) { first++ }})
	d.Subscribe(DetectionHooks{
		// A panicking listener must not affect the others or the detector.
		OnConflictDetected: func(*ConflictInfo) { panic("listener bug") },
	})
	d.Subscribe(DetectionHooks{OnConflictDetected: func(*ConflictInfo) { second++ }})

	fetcher.setStamp(stampV("2", t0.Add(time.Minute), "Alice"))
	if _, err := d.CheckForConflicts(context.Background()); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if first != 1 || second != 1 {
		t.Errorf("all healthy listeners should fire once, got %d and %d", first, second)
	}
	if d.State().Error != "" {
		t.Error("a panicking listener must not poison detector state")
	}
}

func TestUpdateOptionsReplacesWholeValue(t *testing.T) {
	fetcher := &mockFetcher{}
	d := newTestDetector(t, fetcher, PresetNotify(), time.Now())

	if err := d.UpdateOptions(WithBlockSave(true), WithCustomMessage("saved over")); err != nil {
		t.Fatalf("UpdateOptions failed: %v", err)
	}

	opts := d.Options()
	if !opts.BlockSave {
		t.Error("BlockSave should be set")
	}
	if opts.CustomMessage != "saved over" {
		t.Errorf("CustomMessage not applied: %q", opts.CustomMessage)
	}
	// Untouched fields carry over from the previous snapshot.
	if !opts.ShowNotification {
		t.Error("ShowNotification from the notify preset should be preserved")
	}
}

// recordingMetrics counts collector calls for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	errors   int
	detected int
	resolved int
}

func (m *recordingMetrics) RecordCheckDuration(op string, d time.Duration) {}

func (m *recordingMetrics) RecordConflictDetected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detected++
}

func (m *recordingMetrics) RecordConflictResolved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved++
}

func (m *recordingMetrics) RecordCheckError(op, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

func (m *recordingMetrics) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors
}

func TestPollTickRecordsSingleFailure(t *testing.T) {
	t0 := time.Now()
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", t0, "Bob"))
	metrics := &recordingMetrics{}

	d, err := NewDetectorBuilder().
		WithFetcher(fetcher).
		WithRecord("tasks", "42").
		WithOptions(PresetRealtime()).
		WithMetrics(metrics).
		WithClock(func() time.Time { return t0 }).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer d.Dispose()
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	fetcher.setError(detectErrors.NewFetchError(detectErrors.OpFetch, errors.New("gateway timeout")))
	d.pollTick()

	if got := metrics.errorCount(); got != 1 {
		t.Errorf("a failed poll should record exactly one error, recorded %d", got)
	}
}

func TestUpdateOptionsZeroIntervalStopsPolling(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", time.Now(), "Bob"))

	d := newTestDetector(t, fetcher, PresetRealtime(), time.Now())
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer d.Dispose()

	if err := d.StartPolling(); err != nil {
		t.Fatalf("StartPolling failed: %v", err)
	}
	if !d.IsPollingActive() {
		t.Fatal("polling should be active after StartPolling")
	}

	if err := d.UpdateOptions(WithCheckInterval(0)); err != nil {
		t.Fatalf("UpdateOptions failed: %v", err)
	}
	if d.IsPollingActive() {
		t.Error("a zero interval should stop the poll loop")
	}
}

func TestStartPollingWithoutIntervalIsNoOp(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", time.Now(), "Bob"))

	d := newTestDetector(t, fetcher, PresetNotify(), time.Now()) // no CheckInterval
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := d.StartPolling(); err != nil {
		t.Fatalf("StartPolling should be a no-op, got %v", err)
	}
	if d.IsPollingActive() {
		t.Error("polling must not start without a configured interval")
	}
}

func TestPollingLifecycle(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.setStamp(stampV("1", time.Now(), "Bob"))

	d := newTestDetector(t, fetcher, PresetRealtime(), time.Now())
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer d.Dispose()

	if err := d.StartPolling(); err != nil {
		t.Fatalf("StartPolling failed: %v", err)
	}
	if !d.IsPollingActive() {
		t.Error("polling should be active after StartPolling")
	}

	if err := d.PausePolling(); err != nil {
		t.Fatalf("PausePolling failed: %v", err)
	}
	if d.IsPollingActive() {
		t.Error("polling should report inactive while paused")
	}

	if err := d.ResumePolling(); err != nil {
		t.Fatalf("ResumePolling failed: %v", err)
	}
	if !d.IsPollingActive() {
		t.Error("polling should be active after ResumePolling")
	}

	if err := d.StopPolling(); err != nil {
		t.Fatalf("StopPolling failed: %v", err)
	}
	if d.IsPollingActive() {
		t.Error("polling should be inactive after StopPolling")
	}
	// Stop is idempotent.
	if err := d.StopPolling(); err != nil {
		t.Fatalf("repeated StopPolling failed: %v", err)
	}
}
