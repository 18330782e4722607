package gaze

import "time"

// Sample is one gaze fix in device screen coordinates, origin at the
// top-left of the tracked display. Samples are immutable values; the
// coordinator retains at most one (the latest) per session.
type Sample struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Result is the outcome of a device session call. The controller wire
// protocol reports success plus an optional human-readable message, and
// transport failures fold into the same shape, so lifecycle decisions
// branch on values rather than error types.
type Result struct {
	OK      bool
	Message string
}

// Failure builds a failed Result from an error.
func Failure(err error) Result {
	return Result{OK: false, Message: err.Error()}
}
