package service

import (
	"context"
	"sync"
	"time"

	"petdoor_hub/internal/coordinator"
	"petdoor_hub/internal/models"
	"petdoor_hub/internal/repository"
)

const journalAppendTimeout = 3 * time.Second

// Journal is a coordinator subscriber that diffs consecutive snapshots and
// persists observed transitions: door open/close and switch flips always,
// pet in/out only when includeAllEvents is set (the timeline sensors are
// opt-in upstream). The first snapshot after startup is taken as baseline
// and produces no events.
type Journal struct {
	eventRepo        repository.EventRepo
	coord            DoorCoordinator
	includeAllEvents bool

	mu   sync.Mutex
	prev *models.Snapshot
	sub  *coordinator.Subscription
}

func NewJournal(eventRepo repository.EventRepo, coord DoorCoordinator, includeAllEvents bool) *Journal {
	return &Journal{
		eventRepo:        eventRepo,
		coord:            coord,
		includeAllEvents: includeAllEvents,
	}
}

// Start attaches the journal to the coordinator's fan-out.
func (j *Journal) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.sub != nil {
		return
	}
	j.sub = j.coord.Subscribe(j.onSnapshot)
}

// Stop detaches the journal.
func (j *Journal) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.sub == nil {
		return
	}
	j.sub.Unsubscribe()
	j.sub = nil
}

func (j *Journal) onSnapshot(snap models.Snapshot) {
	j.mu.Lock()
	prev := j.prev
	j.prev = &snap
	j.mu.Unlock()

	if prev == nil {
		return // baseline
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalAppendTimeout)
	defer cancel()

	j.recordDoorTransition(ctx, prev.Fast, snap.Fast)
	j.recordSwitchTransitions(ctx, prev.Fast, snap.Fast)
	if j.includeAllEvents {
		j.recordPetTransitions(ctx, prev.Slow, snap.Slow)
	}
}

func (j *Journal) recordDoorTransition(ctx context.Context, prev, cur models.FastStateMap) {
	before, hadBefore := prev[models.KeyDoor]
	after, hasAfter := cur[models.KeyDoor]
	if !hadBefore || !hasAfter || before == after {
		return
	}

	typ, msg := models.EventDoorClosed, "Door closed"
	if after {
		typ, msg = models.EventDoorOpened, "Door opened"
	}
	// Append errors are tolerated; the journal is best-effort.
	_ = j.eventRepo.Append(ctx, models.DoorEvent{
		Type:        typ,
		Description: msg,
	})
}

// recordSwitchTransitions covers every fast-plane key except the door, which
// has its own event pair.
func (j *Journal) recordSwitchTransitions(ctx context.Context, prev, cur models.FastStateMap) {
	for key, after := range cur {
		if key == models.KeyDoor {
			continue
		}
		before, seen := prev[key]
		if !seen || before == after {
			continue
		}
		_ = j.eventRepo.Append(ctx, models.DoorEvent{
			Type:        models.EventSwitchSet,
			Description: "Switch changed",
			Metadata:    map[string]any{"key": key, "on": after},
		})
	}
}

func (j *Journal) recordPetTransitions(ctx context.Context, prev, cur models.SlowStateMap) {
	for petID, ev := range cur {
		last, seen := prev[petID]
		if seen && last.Direction == ev.Direction && last.At.Equal(ev.At) {
			continue
		}

		var typ, msg string
		switch ev.Direction {
		case models.DirectionIn:
			typ, msg = models.EventPetIn, "Pet came in"
		case models.DirectionOut:
			typ, msg = models.EventPetOut, "Pet went out"
		default:
			continue
		}

		_ = j.eventRepo.Append(ctx, models.DoorEvent{
			OccurredAt:  ev.At,
			Type:        typ,
			Description: msg,
			Metadata:    map[string]any{"pet_id": petID},
		})
	}
}
