package models

import "time"

// FastStateMap maps a fast-plane state key to its binary value.
type FastStateMap map[string]bool

// SlowStateMap maps a pet ID to its most recent timeline event.
type SlowStateMap map[string]PetEvent

// Direction is the movement direction of a pet timeline event.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionIn
	DirectionOut
)

// Wire values used by the cloud timeline API.
const (
	directionWireIn  = "in"
	directionWireOut = "out"
)

// ParseDirection resolves a wire direction string once, at decode time.
func ParseDirection(s string) Direction {
	switch s {
	case directionWireIn:
		return DirectionIn
	case directionWireOut:
		return DirectionOut
	default:
		return DirectionUnknown
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the direction as its wire string.
func (d Direction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// PetEvent is the last known timeline entry for a single pet.
type PetEvent struct {
	Direction Direction `json:"direction"`
	At        time.Time `json:"at"`
}

// Snapshot is the merged cache of both data planes at a point in time.
// Instances handed out by the store are copies; consumers may read them
// without synchronization.
type Snapshot struct {
	Fast            FastStateMap `json:"fast"`
	Slow            SlowStateMap `json:"slow"`
	LastSlowRefresh time.Time    `json:"last_slow_refresh"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Fast:            make(FastStateMap, len(s.Fast)),
		Slow:            make(SlowStateMap, len(s.Slow)),
		LastSlowRefresh: s.LastSlowRefresh,
	}
	for k, v := range s.Fast {
		out.Fast[k] = v
	}
	for k, v := range s.Slow {
		out.Slow[k] = v
	}
	return out
}
