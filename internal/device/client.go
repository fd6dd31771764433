package device

import (
	"context"

	"petdoor_hub/internal/models"
)

// Client is the remote pet-door API consumed by the coordinator.
//
// FetchFastState returns the complete fast-plane map on every call, so the
// coordinator replaces its cache wholesale. FetchSlowState hits the
// rate-limited cloud timeline and is polled on a slower cadence.
type Client interface {
	// ResolveIdentity fetches the device descriptor. Called once at startup;
	// a failure is fatal to coordinator initialization.
	ResolveIdentity(ctx context.Context) (models.DeviceIdentity, error)

	// AvailablePets fetches the pet roster. includeAll also returns pets
	// without an assigned RFID tag.
	AvailablePets(ctx context.Context, includeAll bool) ([]models.Pet, error)

	// FetchFastState returns the full fast-plane state map.
	FetchFastState(ctx context.Context) (models.FastStateMap, error)

	// FetchSlowState returns the latest timeline event per pet.
	FetchSlowState(ctx context.Context, deviceID int) (models.SlowStateMap, error)

	// WriteState sets a single fast-plane key on the device.
	WriteState(ctx context.Context, key string, value bool) error
}
