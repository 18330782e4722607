package server

import (
	"github.com/zekun-wu/EyeReadDemo/internal/device"
)

type MessageType string

const (
	MsgGaze     MessageType = "gaze"
	MsgSession  MessageType = "session"
	MsgPictures MessageType = "pictures"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// GazePayload is the wire form of a resolved gaze position, shared by
// the gaze endpoint and the websocket feed. Timestamp is unix seconds.
type GazePayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp float64 `json:"timestamp"`
}

func PositionPayload(p device.Position) GazePayload {
	return GazePayload{
		X:         p.X,
		Y:         p.Y,
		Timestamp: float64(p.Timestamp.UnixNano()) / 1e9,
	}
}

type PicturesPayload struct {
	Pictures []string `json:"pictures"`
	Count    int      `json:"count"`
}
