package service

import (
	"context"
	"time"

	"petdoor_hub/internal/coordinator"
	"petdoor_hub/internal/models"
	"petdoor_hub/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Door exposes command operations against the door: open/close and switch
// toggles. All of them go through the coordinator's optimistic write path.
type Door interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	SetSwitch(ctx context.Context, key string, on bool) error
}

// Monitoring exposes read-only views over the coordinator's cache: the raw
// snapshot, availability flags, device identity and derived pet presence.
// Subscribe attaches a live listener to the coordinator's fan-out.
type Monitoring interface {
	Snapshot() models.Snapshot
	Availability() coordinator.Availability
	Identity() models.DeviceIdentity
	Presence() []PetPresence
	Subscribe(fn coordinator.SubscriberFunc) *coordinator.Subscription
}

// EventLog exposes the append-only journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DoorEvent, error)
}

// LogFilter supports journal filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", or one of the models.Event* types
}

// DoorCoordinator is the slice of the coordinator the services consume.
type DoorCoordinator interface {
	Snapshot() models.Snapshot
	Availability() coordinator.Availability
	Identity() models.DeviceIdentity
	Pets() []models.Pet
	Submit(ctx context.Context, key string, value bool) error
	Subscribe(fn coordinator.SubscriberFunc) *coordinator.Subscription
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Door
	Monitoring
	EventLog
	Authorization

	// Journal is the background subscriber persisting observed transitions.
	Journal *Journal
}

// NewService wires the coordinator and repository layer into concrete
// services.
func NewService(repos *repository.Repository, coord DoorCoordinator, includeAllEvents bool) *Service {
	return &Service{
		Door:          NewDoorService(coord),
		Monitoring:    NewMonitoringService(coord),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth),
		Journal:       NewJournal(repos.EventRepo, coord, includeAllEvents),
	}
}
