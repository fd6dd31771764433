package service

import (
	"context"
	"errors"
	"fmt"

	"petdoor_hub/internal/models"
)

// DoorService issues commands through the coordinator. The coordinator
// applies acknowledged writes to its cache immediately, so callers see the
// new value on the next snapshot read without waiting for a scheduled
// refresh.
type DoorService struct {
	coord DoorCoordinator
}

func NewDoorService(coord DoorCoordinator) *DoorService {
	return &DoorService{coord: coord}
}

var errDoorKeyNotSwitchable = errors.New("use open/close for the door key")

// Open commands the door open.
func (s *DoorService) Open(ctx context.Context) error {
	if err := s.coord.Submit(ctx, models.KeyDoor, true); err != nil {
		return fmt.Errorf("open door: %w", err)
	}
	return nil
}

// Close commands the door closed.
func (s *DoorService) Close(ctx context.Context) error {
	if err := s.coord.Submit(ctx, models.KeyDoor, false); err != nil {
		return fmt.Errorf("close door: %w", err)
	}
	return nil
}

// SetSwitch toggles a non-door fast-plane key (rfid, motion sensors, system,
// time, brightness sensor).
func (s *DoorService) SetSwitch(ctx context.Context, key string, on bool) error {
	if key == models.KeyDoor {
		return errDoorKeyNotSwitchable
	}
	if err := s.coord.Submit(ctx, key, on); err != nil {
		return fmt.Errorf("set switch %s=%t: %w", key, on, err)
	}
	return nil
}
