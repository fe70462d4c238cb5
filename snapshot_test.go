package conflictkit

import (
	"testing"
	"time"
)

func TestSnapshotStore(t *testing.T) {
	var s snapshotStore

	if _, ok := s.Get(); ok {
		t.Error("empty store should report no baseline")
	}

	stamp := stampV("3", time.Now(), "Bob")
	s.Set(stamp)

	got, ok := s.Get()
	if !ok {
		t.Fatal("baseline should be present after Set")
	}
	if got != stamp {
		t.Errorf("Get = %+v, want %+v", got, stamp)
	}

	// Wholesale replacement.
	replacement := stampV("4", time.Now(), "Alice")
	s.Set(replacement)
	if got, _ := s.Get(); got != replacement {
		t.Error("Set should replace the stamp wholesale")
	}

	s.Clear()
	if _, ok := s.Get(); ok {
		t.Error("Clear should drop the baseline")
	}
}
