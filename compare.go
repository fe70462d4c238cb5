package conflictkit

import "time"

// Severity thresholds, measured from the conflicting remote edit to the
// moment of the check.
const (
	severityHighWindow   = 60 * time.Second
	severityMediumWindow = 300 * time.Second
)

// Compare decides whether the current remote stamp diverged from the
// original baseline and derives the conflict metadata. Pure: no I/O, no
// state. Divergence is opaque string identity on the version token, not a
// numeric or temporal ordering, since backing stores do not guarantee
// monotonic version identifiers.
func Compare(original, current VersionStamp, id RecordIdentity) *ConflictInfo {
	return compareAt(time.Now(), original, current, id)
}

// compareAt is the clock-injected form used by tests.
func compareAt(now time.Time, original, current VersionStamp, id RecordIdentity) *ConflictInfo {
	info := &ConflictInfo{
		HasConflict:      original.Version != current.Version,
		OriginalVersion:  original.Version,
		CurrentVersion:   current.Version,
		LastModifiedBy:   current.ModifiedBy,
		LastModified:     current.Modified,
		OriginalModified: original.Modified,
		ItemID:           id.ItemID,
		ListID:           id.ListID,
	}

	if info.HasConflict {
		info.TimeSinceConflict = now.Sub(current.Modified)
		info.Severity = ClassifySeverity(info.TimeSinceConflict)
	}

	return info
}

// ClassifySeverity maps the age of a conflicting remote edit to a severity:
// high under 60s, medium under 300s, low otherwise.
func ClassifySeverity(sinceConflict time.Duration) Severity {
	switch {
	case sinceConflict < severityHighWindow:
		return SeverityHigh
	case sinceConflict < severityMediumWindow:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// IsRecent reports whether a conflict's remote edit happened within the
// medium-severity window (300s).
func IsRecent(info *ConflictInfo) bool {
	return info != nil && info.HasConflict && info.TimeSinceConflict < severityMediumWindow
}
