package coordinator

import (
	"sync"
	"time"

	"petdoor_hub/internal/models"
)

// StateStore owns the merged snapshot of both data planes. It is the single
// shared mutable resource: scheduled merges and optimistic single-key writes
// all pass through its mutex, and readers only ever receive copies.
//
// Fast-plane merges replace the whole map because the device reports its
// complete state on every fetch. Slow-plane merges likewise, but only when a
// slow-cycle fetch succeeds; between refreshes the previous map is retained
// verbatim. No entry is ever removed once observed, only overwritten.
type StateStore struct {
	mu   sync.Mutex
	snap models.Snapshot
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{
		snap: models.Snapshot{
			Fast: models.FastStateMap{},
			Slow: models.SlowStateMap{},
		},
	}
}

// MergeFast replaces the fast-plane map wholesale and returns the resulting
// snapshot.
func (s *StateStore) MergeFast(m models.FastStateMap) models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	fast := make(models.FastStateMap, len(m))
	for k, v := range m {
		fast[k] = v
	}
	s.snap.Fast = fast
	return s.snap.Clone()
}

// MergeSlow replaces the slow-plane map wholesale, advances the refresh
// timestamp and returns the resulting snapshot.
func (s *StateStore) MergeSlow(m models.SlowStateMap, at time.Time) models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	slow := make(models.SlowStateMap, len(m))
	for k, v := range m {
		slow[k] = v
	}
	s.snap.Slow = slow
	s.snap.LastSlowRefresh = at
	return s.snap.Clone()
}

// ApplyOptimistic overwrites a single fast-plane key after an acknowledged
// remote write. Used exclusively by the command path; scheduled refreshes go
// through MergeFast.
func (s *StateStore) ApplyOptimistic(key string, value bool) models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Fast[key] = value
	return s.snap.Clone()
}

// Read returns a copy of the current snapshot without blocking on any
// in-flight refresh.
func (s *StateStore) Read() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// LastSlowRefresh returns the timestamp of the last successful slow-plane
// merge; zero if none has succeeded yet.
func (s *StateStore) LastSlowRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.LastSlowRefresh
}
