package models

// Canonical fast-plane state keys exposed by the door's local API.
const (
	KeyDoor             = "door"
	KeyRFID             = "rfid"
	KeyMotionIn         = "motion_in"
	KeyMotionOut        = "motion_out"
	KeyBrightnessSensor = "brightness_sensor"
	KeySystem           = "system"
	KeyTime             = "time"
)

// FastStateKeys lists every key the device reports on the fast plane.
// The device always returns the full set, so a successful fetch replaces
// the cached map wholesale.
var FastStateKeys = []string{
	KeyDoor,
	KeyRFID,
	KeyMotionIn,
	KeyMotionOut,
	KeyBrightnessSensor,
	KeySystem,
	KeyTime,
}

// DeviceIdentity describes the door unit. Resolved once at startup and
// immutable afterwards; shared read-only by every consumer.
type DeviceIdentity struct {
	Name         string `json:"name"`
	ID           int    `json:"id"`
	SWVersion    string `json:"sw_version"`
	SerialNumber string `json:"serial_number"`
}

// IsValidFastKey reports whether key is one of the canonical fast-plane keys.
func IsValidFastKey(key string) bool {
	for _, k := range FastStateKeys {
		if k == key {
			return true
		}
	}
	return false
}
