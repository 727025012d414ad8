package session

import "errors"

// Limits on history loads.
const (
	// DefaultHistoryLimit is the default number of messages loaded when a
	// session activates.
	DefaultHistoryLimit int32 = 1000

	// MaxHistoryLimit is the absolute maximum to prevent OOM on a
	// pathological session.
	MaxHistoryLimit int32 = 10000
)

// Sentinel errors for session operations. Part of the Store's public API;
// check with errors.Is().
var (
	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoActiveSession indicates no current-session state file exists.
	ErrNoActiveSession = errors.New("no active session")
)

// NormalizeHistoryLimit clamps a history load limit into range, mapping
// zero and negatives to the default.
func NormalizeHistoryLimit(limit int32) int32 {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
