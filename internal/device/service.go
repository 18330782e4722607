package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrNotConnected is returned by session operations that need a
// connected tracker.
var ErrNotConnected = errors.New("device: eye tracker not connected")

// Status is the device session snapshot served to clients.
type Status struct {
	Connected    bool   `json:"connected"`
	Tracking     bool   `json:"tracking"`
	Model        string `json:"model,omitempty"`
	DeviceName   string `json:"device_name,omitempty"`
	Serial       string `json:"serial_number,omitempty"`
	CurrentImage string `json:"current_image,omitempty"`
	BufferSize   int    `json:"buffer_size"`
}

// Service owns the one tracker session of the process, the way a single
// child reads in front of a single device. It buffers the raw stream,
// resolves the newest sample into screen coordinates on demand, and
// fans resolved positions out to push listeners.
type Service struct {
	driver  Driver
	screenW float64
	screenH float64
	bufSize int
	log     *slog.Logger

	mu        sync.Mutex
	connected bool
	tracking  bool
	info      Info
	buf       []RawSample
	next      int
	count     int
	imageFile string
	listeners []func(Position)
}

func NewService(driver Driver, screenW, screenH float64, bufSize int, log *slog.Logger) *Service {
	if bufSize <= 0 {
		bufSize = 100
	}
	if screenW <= 0 {
		screenW = 1920
	}
	if screenH <= 0 {
		screenH = 1080
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		driver:  driver,
		screenW: screenW,
		screenH: screenH,
		bufSize: bufSize,
		log:     log,
		buf:     make([]RawSample, bufSize),
	}
}

// Connect finds and connects the tracker. Reconnecting while connected
// refreshes the device info.
func (s *Service) Connect() error {
	info, err := s.driver.Connect()
	if err != nil {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		return fmt.Errorf("connect eye tracker: %w", err)
	}
	s.mu.Lock()
	s.connected = true
	s.info = info
	s.mu.Unlock()
	s.log.Info("eye tracker connected", "model", info.Model, "device", info.Name, "serial", info.Serial)
	return nil
}

// Info returns the connected device identity.
func (s *Service) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Start subscribes the gaze stream. Starting while already tracking is
// a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	if s.tracking {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.driver.Subscribe(s.onRaw); err != nil {
		return fmt.Errorf("start gaze stream: %w", err)
	}
	s.mu.Lock()
	s.tracking = true
	s.mu.Unlock()
	s.log.Info("gaze tracking started")
	return nil
}

// Stop unsubscribes the gaze stream. The buffer keeps its contents so
// the last positions stay readable after a session ends.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	wasTracking := s.tracking
	s.tracking = false
	s.mu.Unlock()

	if err := s.driver.Unsubscribe(); err != nil {
		return fmt.Errorf("stop gaze stream: %w", err)
	}
	if wasTracking {
		s.log.Info("gaze tracking stopped")
	}
	return nil
}

// Disconnect stops tracking and drops the device.
func (s *Service) Disconnect() {
	s.driver.Unsubscribe()
	s.driver.Disconnect()
	s.mu.Lock()
	s.connected = false
	s.tracking = false
	s.mu.Unlock()
	s.log.Info("eye tracker disconnected")
}

// SetImageContext records which page the reader is viewing.
func (s *Service) SetImageContext(imageFile string) {
	s.mu.Lock()
	s.imageFile = imageFile
	s.mu.Unlock()
	s.log.Info("image context set", "image", imageFile)
}

// AddListener registers a push consumer for resolved positions. Blink
// samples are not delivered.
func (s *Service) AddListener(fn func(Position)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// CurrentPosition resolves the newest buffered sample into screen
// coordinates: both eyes valid averages them, a single valid eye stands
// alone, neither means no position.
func (s *Service) CurrentPosition() (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return Position{}, false
	}
	newest := s.buf[(s.next-1+s.bufSize)%s.bufSize]
	return resolve(newest, s.screenW, s.screenH)
}

// Status reports the session snapshot.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Connected:    s.connected,
		Tracking:     s.tracking,
		Model:        s.info.Model,
		DeviceName:   s.info.Name,
		Serial:       s.info.Serial,
		CurrentImage: s.imageFile,
		BufferSize:   s.count,
	}
}

// onRaw is the driver callback: buffer every sample, push resolved ones
// to listeners.
func (s *Service) onRaw(raw RawSample) {
	s.mu.Lock()
	s.buf[s.next] = raw
	s.next = (s.next + 1) % s.bufSize
	if s.count < s.bufSize {
		s.count++
	}
	listeners := make([]func(Position), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if pos, ok := resolve(raw, s.screenW, s.screenH); ok {
		for _, fn := range listeners {
			fn(pos)
		}
	}
}

func resolve(raw RawSample, w, h float64) (Position, bool) {
	switch {
	case raw.LeftValid && raw.RightValid:
		return Position{
			X:         (raw.LeftX + raw.RightX) / 2 * w,
			Y:         (raw.LeftY + raw.RightY) / 2 * h,
			Timestamp: raw.Timestamp,
		}, true
	case raw.LeftValid:
		return Position{X: raw.LeftX * w, Y: raw.LeftY * h, Timestamp: raw.Timestamp}, true
	case raw.RightValid:
		return Position{X: raw.RightX * w, Y: raw.RightY * h, Timestamp: raw.Timestamp}, true
	}
	return Position{}, false
}
