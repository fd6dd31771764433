package coordinator

import (
	"testing"
	"time"

	"petdoor_hub/internal/models"
)

func TestStateStore_MergeFastReplacesWholesale(t *testing.T) {
	s := NewStateStore()

	first := models.FastStateMap{models.KeyDoor: true, models.KeyRFID: true}
	s.MergeFast(first)

	// A later fetch omitting a key drops it: the device reports the complete
	// map every time, so absence means gone, not unchanged.
	second := models.FastStateMap{models.KeyDoor: false}
	snap := s.MergeFast(second)

	if len(snap.Fast) != 1 {
		t.Fatalf("expected 1 fast key after replace, got %d: %v", len(snap.Fast), snap.Fast)
	}
	if snap.Fast[models.KeyDoor] != false {
		t.Fatalf("expected door=false, got %v", snap.Fast)
	}
	if _, ok := snap.Fast[models.KeyRFID]; ok {
		t.Fatalf("stale rfid key survived wholesale replace")
	}
}

func TestStateStore_MergeFastContainsEveryFetchedKey(t *testing.T) {
	s := NewStateStore()

	fetched := models.FastStateMap{}
	for i, k := range models.FastStateKeys {
		fetched[k] = i%2 == 0
	}

	snap := s.MergeFast(fetched)
	for k, want := range fetched {
		got, ok := snap.Fast[k]
		if !ok {
			t.Fatalf("merged snapshot is missing fetched key %q", k)
		}
		if got != want {
			t.Fatalf("key %q: got %t, want %t", k, got, want)
		}
	}
}

func TestStateStore_MergeSlowAdvancesTimestamp(t *testing.T) {
	s := NewStateStore()

	if !s.LastSlowRefresh().IsZero() {
		t.Fatalf("fresh store should have zero slow timestamp")
	}

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	ev := models.PetEvent{Direction: models.DirectionIn, At: at.Add(-time.Minute)}
	snap := s.MergeSlow(models.SlowStateMap{"pet-1": ev}, at)

	if !snap.LastSlowRefresh.Equal(at) {
		t.Fatalf("got timestamp %v, want %v", snap.LastSlowRefresh, at)
	}
	if got := snap.Slow["pet-1"]; got != ev {
		t.Fatalf("got event %+v, want %+v", got, ev)
	}
	if !s.LastSlowRefresh().Equal(at) {
		t.Fatalf("store timestamp not advanced")
	}
}

func TestStateStore_ApplyOptimisticTouchesSingleKey(t *testing.T) {
	s := NewStateStore()
	s.MergeFast(models.FastStateMap{models.KeyDoor: false, models.KeyRFID: true})

	snap := s.ApplyOptimistic(models.KeyDoor, true)

	if snap.Fast[models.KeyDoor] != true {
		t.Fatalf("optimistic write not visible")
	}
	if snap.Fast[models.KeyRFID] != true {
		t.Fatalf("unrelated key changed by optimistic write")
	}
}

func TestStateStore_ReadReturnsIndependentCopy(t *testing.T) {
	s := NewStateStore()
	s.MergeFast(models.FastStateMap{models.KeyDoor: false})
	s.MergeSlow(models.SlowStateMap{"pet-1": {Direction: models.DirectionOut}}, time.Now())

	snap := s.Read()
	snap.Fast[models.KeyDoor] = true
	snap.Slow["pet-2"] = models.PetEvent{Direction: models.DirectionIn}

	clean := s.Read()
	if clean.Fast[models.KeyDoor] != false {
		t.Fatalf("mutating a read snapshot leaked into the store")
	}
	if _, ok := clean.Slow["pet-2"]; ok {
		t.Fatalf("mutating a read snapshot leaked into the slow map")
	}
}
