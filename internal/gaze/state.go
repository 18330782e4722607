// Package gaze holds the eye-tracking session model: the lifecycle state
// machine, the fixed-cadence sample poller, and the presentation
// coordinator that ties them to the full-screen reading view.
package gaze

import "encoding/json"

// State is the lifecycle of one tracking session. A session moves forward
// through the connect/bind/start sequence, and every teardown passes
// through Stopping before settling back at Idle.
type State int

const (
	Idle State = iota
	Connecting
	Connected
	ContextBound
	Tracking
	Stopping
	Failed
)

var stateNames = map[State]string{
	Idle:         "idle",
	Connecting:   "connecting",
	Connected:    "connected",
	ContextBound: "context_bound",
	Tracking:     "tracking",
	Stopping:     "stopping",
	Failed:       "failed",
}

var stateFromName = map[string]State{
	"idle":          Idle,
	"connecting":    Connecting,
	"connected":     Connected,
	"context_bound": ContextBound,
	"tracking":      Tracking,
	"stopping":      Stopping,
	"failed":        Failed,
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := stateFromName[name]; ok {
		*s = v
	}
	return nil
}

// Active reports whether a lifecycle attempt or live session is in
// flight. Failed is not active: the attempt is over, only the outcome
// remains on screen.
func (s State) Active() bool {
	switch s {
	case Connecting, Connected, ContextBound, Tracking, Stopping:
		return true
	}
	return false
}

// Mode is the presentation mode of the reading surface. FullScreen
// without Tracking is a legal degraded combination; Tracking without
// FullScreen is not.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFullScreen
)

var modeNames = map[Mode]string{
	ModeNormal:     "normal",
	ModeFullScreen: "full_screen",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "unknown"
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
