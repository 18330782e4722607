// Package device models the eye tracker boundary of the controller
// daemon: the vendor driver interface, a simulated driver for machines
// without hardware, and the session service that buffers raw samples
// and resolves them into screen positions.
package device

import "time"

// Info identifies a connected tracker.
type Info struct {
	Model  string `json:"model"`
	Name   string `json:"device_name"`
	Serial string `json:"serial_number"`
}

// RawSample is one vendor-stream sample: per-eye gaze points on the
// display area, normalized to [0,1] with origin top-left, plus validity
// flags. An eye that the device lost carries no usable point.
type RawSample struct {
	Timestamp  time.Time
	LeftX      float64
	LeftY      float64
	RightX     float64
	RightY     float64
	LeftValid  bool
	RightValid bool
}

// Position is a resolved gaze fix in screen coordinates.
type Position struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp time.Time `json:"-"`
}

// Driver is the vendor boundary. Subscribe starts delivering raw
// samples on the driver's own goroutine and keeps doing so until
// Unsubscribe returns.
type Driver interface {
	Connect() (Info, error)
	Subscribe(fn func(RawSample)) error
	Unsubscribe() error
	Disconnect()
}
