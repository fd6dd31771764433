package service

import (
	"testing"
	"time"

	"petdoor_hub/internal/models"
)

func journalSnap(doorOpen bool, slow models.SlowStateMap) models.Snapshot {
	if slow == nil {
		slow = models.SlowStateMap{}
	}
	return models.Snapshot{
		Fast: models.FastStateMap{models.KeyDoor: doorOpen},
		Slow: slow,
	}
}

func TestJournal_FirstSnapshotIsBaseline(t *testing.T) {
	repo := &stubEventRepo{}
	coord := &stubCoordinator{}
	j := NewJournal(repo, coord, true)
	j.Start()
	defer j.Stop()

	coord.push(journalSnap(true, models.SlowStateMap{
		"pet-1": {Direction: models.DirectionIn, At: time.Now()},
	}))

	if len(repo.appended) != 0 {
		t.Fatalf("baseline snapshot produced events: %+v", repo.appended)
	}
}

func TestJournal_DoorTransitions(t *testing.T) {
	repo := &stubEventRepo{}
	coord := &stubCoordinator{}
	j := NewJournal(repo, coord, false)
	j.Start()
	defer j.Stop()

	coord.push(journalSnap(false, nil)) // baseline
	coord.push(journalSnap(true, nil))  // closed -> open
	coord.push(journalSnap(true, nil))  // unchanged
	coord.push(journalSnap(false, nil)) // open -> closed

	if len(repo.appended) != 2 {
		t.Fatalf("want 2 door events, got %+v", repo.appended)
	}
	if repo.appended[0].Type != models.EventDoorOpened {
		t.Fatalf("first event: %+v", repo.appended[0])
	}
	if repo.appended[1].Type != models.EventDoorClosed {
		t.Fatalf("second event: %+v", repo.appended[1])
	}
}

func TestJournal_SwitchTransitions(t *testing.T) {
	repo := &stubEventRepo{}
	coord := &stubCoordinator{}
	j := NewJournal(repo, coord, false)
	j.Start()
	defer j.Stop()

	withRFID := func(doorOpen, rfid bool) models.Snapshot {
		return models.Snapshot{
			Fast: models.FastStateMap{models.KeyDoor: doorOpen, models.KeyRFID: rfid},
			Slow: models.SlowStateMap{},
		}
	}

	coord.push(withRFID(false, true))  // baseline
	coord.push(withRFID(false, false)) // rfid flips
	coord.push(withRFID(false, false)) // unchanged

	if len(repo.appended) != 1 {
		t.Fatalf("want 1 switch event, got %+v", repo.appended)
	}
	ev := repo.appended[0]
	if ev.Type != models.EventSwitchSet {
		t.Fatalf("event type: %+v", ev)
	}
	meta, ok := ev.Metadata.(map[string]any)
	if !ok || meta["key"] != models.KeyRFID || meta["on"] != false {
		t.Fatalf("event metadata: %+v", ev.Metadata)
	}
}

func TestJournal_PetTransitionsGatedByIncludeAllEvents(t *testing.T) {
	at := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	in := models.SlowStateMap{"pet-1": {Direction: models.DirectionIn, At: at}}
	out := models.SlowStateMap{"pet-1": {Direction: models.DirectionOut, At: at.Add(time.Hour)}}

	t.Run("disabled", func(t *testing.T) {
		repo := &stubEventRepo{}
		coord := &stubCoordinator{}
		j := NewJournal(repo, coord, false)
		j.Start()
		defer j.Stop()

		coord.push(journalSnap(false, in))
		coord.push(journalSnap(false, out))

		if len(repo.appended) != 0 {
			t.Fatalf("pet events recorded while disabled: %+v", repo.appended)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		repo := &stubEventRepo{}
		coord := &stubCoordinator{}
		j := NewJournal(repo, coord, true)
		j.Start()
		defer j.Stop()

		coord.push(journalSnap(false, in))  // baseline
		coord.push(journalSnap(false, out)) // in -> out
		coord.push(journalSnap(false, out)) // unchanged

		if len(repo.appended) != 1 {
			t.Fatalf("want 1 pet event, got %+v", repo.appended)
		}
		ev := repo.appended[0]
		if ev.Type != models.EventPetOut {
			t.Fatalf("event type: %+v", ev)
		}
		if !ev.OccurredAt.Equal(at.Add(time.Hour)) {
			t.Fatalf("event should carry the timeline timestamp: %+v", ev)
		}
		meta, ok := ev.Metadata.(map[string]any)
		if !ok || meta["pet_id"] != "pet-1" {
			t.Fatalf("event metadata: %+v", ev.Metadata)
		}
	})
}

func TestJournal_UnknownDirectionSkipped(t *testing.T) {
	repo := &stubEventRepo{}
	coord := &stubCoordinator{}
	j := NewJournal(repo, coord, true)
	j.Start()
	defer j.Stop()

	coord.push(journalSnap(false, nil))
	coord.push(journalSnap(false, models.SlowStateMap{
		"pet-1": {Direction: models.DirectionUnknown, At: time.Now()},
	}))

	if len(repo.appended) != 0 {
		t.Fatalf("unknown direction produced an event: %+v", repo.appended)
	}
}

func TestJournal_StartStopIdempotent(t *testing.T) {
	repo := &stubEventRepo{}
	coord := &stubCoordinator{}
	j := NewJournal(repo, coord, false)

	j.Start()
	j.Start()
	if coord.subscribes != 1 {
		t.Fatalf("double Start subscribed twice")
	}

	j.Stop()
	j.Stop() // must not panic

	j.Start()
	if coord.subscribes != 2 {
		t.Fatalf("restart after Stop did not resubscribe")
	}
	j.Stop()
}
