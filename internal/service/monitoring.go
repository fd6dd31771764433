package service

import (
	"time"

	"petdoor_hub/internal/coordinator"
	"petdoor_hub/internal/models"
)

// Presence states derived from the slow plane.
const (
	PresenceHome    = "home"
	PresenceAway    = "not_home"
	PresenceUnknown = "unknown"
)

// PetPresence is the derived per-pet view: last movement direction mapped to
// a home/away state. A pet without a timeline entry yet is unknown, not an
// error.
type PetPresence struct {
	Pet       models.Pet `json:"pet"`
	Status    string     `json:"status"`
	LastSeen  time.Time  `json:"last_seen,omitempty"`
	Available bool       `json:"available"`
}

type MonitoringService struct {
	coord DoorCoordinator
}

func NewMonitoringService(coord DoorCoordinator) *MonitoringService {
	return &MonitoringService{coord: coord}
}

// Snapshot returns the current merged cache.
func (s *MonitoringService) Snapshot() models.Snapshot {
	return s.coord.Snapshot()
}

// Availability returns the advisory per-key and per-plane flags.
func (s *MonitoringService) Availability() coordinator.Availability {
	return s.coord.Availability()
}

// Identity returns the device descriptor.
func (s *MonitoringService) Identity() models.DeviceIdentity {
	return s.coord.Identity()
}

// Subscribe attaches a listener to the coordinator's fan-out.
func (s *MonitoringService) Subscribe(fn coordinator.SubscriberFunc) *coordinator.Subscription {
	return s.coord.Subscribe(fn)
}

// Presence derives home/away per roster pet from the slow plane.
func (s *MonitoringService) Presence() []PetPresence {
	snap := s.coord.Snapshot()
	avail := s.coord.Availability()
	pets := s.coord.Pets()

	out := make([]PetPresence, 0, len(pets))
	for _, pet := range pets {
		p := PetPresence{Pet: pet, Status: PresenceUnknown}
		if ev, ok := snap.Slow[pet.ID]; ok {
			p.LastSeen = ev.At
			p.Available = avail.SlowPlane
			switch ev.Direction {
			case models.DirectionIn:
				p.Status = PresenceHome
			case models.DirectionOut:
				p.Status = PresenceAway
			}
		}
		out = append(out, p)
	}
	return out
}
