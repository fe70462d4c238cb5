// Package conflictkit provides optimistic-concurrency conflict detection
// for shared records held in a remote backing store that offers no native
// locking. A Detector watches one record: it captures a baseline version
// stamp, re-fetches the current stamp on demand or on a timer, and reports
// divergence to the caller. Detection only: resolving a conflict (merge,
// reload, overwrite) is left to the consumer, which re-baselines via
// UpdateSnapshot once a resolution action has been taken.
package conflictkit

import (
	"context"
	"time"
)

// RecordIdentity identifies the record being watched. It is bound to a
// Detector at construction and never changes afterwards.
type RecordIdentity struct {
	ListID string
	ItemID string
}

// Actor describes the principal that last modified a record.
type Actor struct {
	Name      string
	ContactID string
}

// VersionStamp is a point-in-time version descriptor of a record as reported
// by the backing store. Version identifiers are opaque tokens: two stamps
// denote the same record state iff their Version strings are equal. No
// ordering between version identifiers is assumed or inferred.
//
// Stamps are replaced wholesale, never mutated field-by-field.
type VersionStamp struct {
	// Version is the opaque version identifier.
	Version string

	// Modified is when the record was last modified.
	Modified time.Time

	// ModifiedBy is who last modified the record.
	ModifiedBy Actor
}

// IsZero returns true if the stamp carries no version identifier.
func (s VersionStamp) IsZero() bool {
	return s.Version == ""
}

// Severity classifies how fresh a conflicting remote edit is. A very recent
// remote edit likely means another actor is working on the record right now.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ConflictInfo is the read-only outcome of one comparison between the local
// baseline and the current remote stamp. A fresh value is produced by every
// check; it is never mutated in place. All fields are populated on both the
// conflict and no-conflict paths so the caller has full context either way.
type ConflictInfo struct {
	// HasConflict is true iff the remote version diverged from the baseline.
	HasConflict bool

	// OriginalVersion is the baseline version identifier.
	OriginalVersion string

	// CurrentVersion is the remote version identifier at check time.
	CurrentVersion string

	// LastModifiedBy is who made the most recent remote modification.
	LastModifiedBy Actor

	// LastModified is when the most recent remote modification happened.
	LastModified time.Time

	// OriginalModified is when the baseline version was modified.
	OriginalModified time.Time

	// ItemID and ListID echo the watched record's identity.
	ItemID string
	ListID string

	// Severity classifies the conflict by recency of the remote edit.
	// Only meaningful when HasConflict is true.
	Severity Severity

	// TimeSinceConflict is how long ago the conflicting remote edit was
	// made, measured at check time. Only meaningful when HasConflict is true.
	TimeSinceConflict time.Duration
}

// DetectionState is the Detector's observable state. Callers receive copies
// via Detector.State; the Detector is the only writer.
type DetectionState struct {
	// IsChecking is true while a check cycle's fetch is in flight.
	IsChecking bool

	// HasConflict is true once a conflict has been detected and not yet
	// resolved via UpdateSnapshot.
	HasConflict bool

	// ConflictInfo is the outcome of the most recent completed comparison,
	// nil before the first check.
	ConflictInfo *ConflictInfo

	// LastChecked is when the most recent check completed, zero before the
	// first check.
	LastChecked time.Time

	// Error is the message of the most recent check failure, empty when the
	// last check succeeded. A transient fetch failure never invalidates
	// HasConflict.
	Error string

	// IsPollingActive reports whether the background poll loop is running
	// and not paused.
	IsPollingActive bool
}

// StampFetcher retrieves the current version stamp of a record from the
// backing store. This is the only boundary the detection core depends on.
//
// Implementations report failures as typed errors from the errors package:
// NOT_FOUND when the record no longer exists, PERMISSION_DENIED when read
// access is missing, FETCH_FAILED for any other transport or backing-store
// error.
type StampFetcher interface {
	FetchStamp(ctx context.Context, listID, itemID string) (VersionStamp, error)
}

// FetcherFunc adapts a plain function to the StampFetcher interface.
type FetcherFunc func(ctx context.Context, listID, itemID string) (VersionStamp, error)

func (f FetcherFunc) FetchStamp(ctx context.Context, listID, itemID string) (VersionStamp, error) {
	return f(ctx, listID, itemID)
}

// ConflictLogger persists an audit trail of detected and resolved conflicts.
// Wired in when Options.LogConflicts is set; see storage/sqlite for the
// SQLite-backed implementation.
type ConflictLogger interface {
	// LogDetected records a newly detected conflict.
	LogDetected(ctx context.Context, info *ConflictInfo) error

	// LogResolved records that the conflict on a record was resolved by
	// re-baselining.
	LogResolved(ctx context.Context, id RecordIdentity) error

	// Close releases the logger's resources.
	Close() error
}

// DetectionHooks is an observer attached to a Detector. Hooks fire
// synchronously inside the operation that caused the transition: detection
// is edge-triggered (the absent→present transition only), resolution fires
// exactly once when UpdateSnapshot clears a flagged conflict. Either field
// may be nil.
type DetectionHooks struct {
	OnConflictDetected func(info *ConflictInfo)
	OnConflictResolved func()
}
