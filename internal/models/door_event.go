package models

import "time"

// Journal event types.
const (
	EventDoorOpened = "DOOR_OPENED"
	EventDoorClosed = "DOOR_CLOSED"
	EventSwitchSet  = "SWITCH_SET"
	EventPetIn      = "PET_IN"
	EventPetOut     = "PET_OUT"
)

// DoorEvent is a single journal entry recorded from observed state
// transitions or issued commands.
type DoorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
