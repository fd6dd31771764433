package device

import "errors"

// Failure classes reported by the device client. Callers match with
// errors.Is; the concrete message carries the transport detail.
var (
	// ErrConnectivity covers unreachable network or refused transport.
	ErrConnectivity = errors.New("device unreachable")

	// ErrProtocol covers malformed or unexpected response shapes, e.g. a
	// state response missing an expected key. Equivalent to a transport
	// failure for availability purposes, distinguishable in logs.
	ErrProtocol = errors.New("unexpected device response")

	// ErrTimeout marks a call that exceeded its deadline.
	ErrTimeout = errors.New("device call timed out")

	// ErrAuthentication marks rejected credentials, normally only seen
	// during startup identity resolution.
	ErrAuthentication = errors.New("device rejected credentials")
)
