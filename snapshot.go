package conflictkit

import "sync"

// snapshotStore holds the last-known baseline stamp of the watched record.
// Owned by a single Detector; the lock only defends against state reads
// racing a poll-driven re-baseline.
type snapshotStore struct {
	mu    sync.RWMutex
	stamp VersionStamp
	set   bool
}

// Get returns the stored baseline and whether one has been captured.
func (s *snapshotStore) Get() (VersionStamp, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stamp, s.set
}

// Set replaces the baseline wholesale.
func (s *snapshotStore) Set(stamp VersionStamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp = stamp
	s.set = true
}

// Clear drops the baseline.
func (s *snapshotStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp = VersionStamp{}
	s.set = false
}
