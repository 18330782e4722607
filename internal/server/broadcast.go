package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultGazeThrottle is how long gaze broadcasts are coalesced so the
// feed carries at most one position per window.
const DefaultGazeThrottle = 50 * time.Millisecond

var ErrTooManyConnections = errors.New("too many websocket clients")

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans daemon events out to websocket observers. Gaze
// positions are coalesced per throttle window so slow observers always
// see the newest position; session and pictures events are sent as
// they happen.
type Broadcaster struct {
	log      *slog.Logger
	throttle time.Duration
	maxConns int
	snapshot func() []WSMessage

	mu      sync.RWMutex
	clients map[*client]bool

	flushMu     sync.Mutex
	pendingGaze *GazePayload
	flushTimer  *time.Timer
}

// NewBroadcaster builds a broadcaster. snapshot, when non-nil, supplies
// the messages sent to every newly connected observer; maxConns of
// zero means unlimited.
func NewBroadcaster(throttle time.Duration, maxConns int, snapshot func() []WSMessage, log *slog.Logger) *Broadcaster {
	if throttle <= 0 {
		throttle = DefaultGazeThrottle
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Broadcaster{
		log:      log,
		throttle: throttle,
		maxConns: maxConns,
		snapshot: snapshot,
		clients:  make(map[*client]bool),
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	c := &client{conn: conn, b: b, send: make(chan []byte, 64)}
	b.clients[c] = true
	b.mu.Unlock()

	go c.writePump()

	if b.snapshot != nil {
		for _, msg := range b.snapshot() {
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			select {
			case c.send <- data:
			default:
				// Client too slow, drop the snapshot
			}
		}
	}
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// PublishGaze queues a gaze position. Positions arriving inside one
// throttle window replace each other; only the newest goes out.
func (b *Broadcaster) PublishGaze(p GazePayload) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.pendingGaze = &p
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flushGaze)
	}
}

func (b *Broadcaster) flushGaze() {
	b.flushMu.Lock()
	gaze := b.pendingGaze
	b.pendingGaze = nil
	b.flushTimer = nil
	b.flushMu.Unlock()

	if gaze == nil {
		return
	}
	b.broadcast(WSMessage{Type: MsgGaze, Payload: gaze})
}

// PublishSession announces a device session change to all observers.
func (b *Broadcaster) PublishSession(payload interface{}) {
	b.broadcast(WSMessage{Type: MsgSession, Payload: payload})
}

// PublishPictures announces a changed pictures library.
func (b *Broadcaster) PublishPictures(p PicturesPayload) {
	b.broadcast(WSMessage{Type: MsgPictures, Payload: p})
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Warn("broadcast marshal failed", "type", msg.Type, "error", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it
			b.log.Warn("websocket client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

// Stop drops any pending gaze flush and disconnects every observer.
func (b *Broadcaster) Stop() {
	b.flushMu.Lock()
	if b.flushTimer != nil {
		b.flushTimer.Stop()
		b.flushTimer = nil
	}
	b.pendingGaze = nil
	b.flushMu.Unlock()

	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
