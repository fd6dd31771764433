package coordinator

import "sync"

// AvailabilityTracker keeps advisory per-key and per-plane flags telling
// consumers whether the last operation touching a key succeeded. A key
// defaults to unavailable until the first successful fetch or write involving
// it. The flags never block scheduling; they are metadata surfaced alongside
// the snapshot.
type AvailabilityTracker struct {
	mu        sync.Mutex
	keys      map[string]bool
	fastPlane bool
	slowPlane bool
}

// Availability is the read-out handed to consumers.
type Availability struct {
	Keys      map[string]bool `json:"keys"`
	FastPlane bool            `json:"fast_plane"`
	SlowPlane bool            `json:"slow_plane"`
}

// NewAvailabilityTracker returns a tracker with everything unavailable.
func NewAvailabilityTracker() *AvailabilityTracker {
	return &AvailabilityTracker{keys: make(map[string]bool)}
}

// MarkFastSuccess records a successful fast-plane refresh covering every key
// in the fetched map.
func (a *AvailabilityTracker) MarkFastSuccess(keys []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fastPlane = true
	for _, k := range keys {
		a.keys[k] = true
	}
}

// MarkFastFailure records a failed fast-plane refresh. Every tracked key
// becomes unavailable, including any non-canonical extras the device
// reported on earlier fetches.
func (a *AvailabilityTracker) MarkFastFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fastPlane = false
	for k := range a.keys {
		a.keys[k] = false
	}
}

// MarkSlowSuccess records a successful slow-plane refresh.
func (a *AvailabilityTracker) MarkSlowSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slowPlane = true
}

// MarkSlowFailure records a failed slow-plane refresh.
func (a *AvailabilityTracker) MarkSlowFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slowPlane = false
}

// MarkKeySuccess records a successful write touching a single key.
func (a *AvailabilityTracker) MarkKeySuccess(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[key] = true
}

// MarkKeyFailure records a failed write touching a single key.
func (a *AvailabilityTracker) MarkKeyFailure(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[key] = false
}

// Key reports whether the given key is currently available.
func (a *AvailabilityTracker) Key(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys[key]
}

// Read returns a copy of all flags.
func (a *AvailabilityTracker) Read() Availability {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make(map[string]bool, len(a.keys))
	for k, v := range a.keys {
		keys[k] = v
	}
	return Availability{Keys: keys, FastPlane: a.fastPlane, SlowPlane: a.slowPlane}
}
