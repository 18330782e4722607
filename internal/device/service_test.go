package device

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeDriver struct {
	mu           sync.Mutex
	subscribes   int
	unsubscribes int
	fn           func(RawSample)
	connectErr   error
	subscribeErr error
}

func (d *fakeDriver) Connect() (Info, error) {
	if d.connectErr != nil {
		return Info{}, d.connectErr
	}
	return Info{Model: "FakeTracker", Name: "bench unit", Serial: "F-1"}, nil
}

func (d *fakeDriver) Subscribe(fn func(RawSample)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subscribeErr != nil {
		return d.subscribeErr
	}
	d.subscribes++
	d.fn = fn
	return nil
}

func (d *fakeDriver) Unsubscribe() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unsubscribes++
	d.fn = nil
	return nil
}

func (d *fakeDriver) Disconnect() {}

func (d *fakeDriver) emit(raw RawSample) {
	d.mu.Lock()
	fn := d.fn
	d.mu.Unlock()
	if fn != nil {
		fn(raw)
	}
}

func newTrackingService(t *testing.T, drv *fakeDriver) *Service {
	t.Helper()
	s := NewService(drv, 1920, 1080, 100, nil)
	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestResolveEyePolicy(t *testing.T) {
	tests := []struct {
		name   string
		raw    RawSample
		wantX  float64
		wantY  float64
		wantOK bool
	}{
		{
			name: "BothEyesAveraged",
			raw: RawSample{
				LeftX: 0.4, LeftY: 0.2, RightX: 0.6, RightY: 0.4,
				LeftValid: true, RightValid: true,
			},
			wantX: 0.5 * 1920, wantY: 0.3 * 1080, wantOK: true,
		},
		{
			name: "LeftEyeOnly",
			raw: RawSample{
				LeftX: 0.25, LeftY: 0.75, RightX: 0.9, RightY: 0.9,
				LeftValid: true,
			},
			wantX: 0.25 * 1920, wantY: 0.75 * 1080, wantOK: true,
		},
		{
			name: "RightEyeOnly",
			raw: RawSample{
				LeftX: 0.1, LeftY: 0.1, RightX: 0.5, RightY: 0.5,
				RightValid: true,
			},
			wantX: 0.5 * 1920, wantY: 0.5 * 1080, wantOK: true,
		},
		{
			name:   "Blink",
			raw:    RawSample{LeftX: 0.5, LeftY: 0.5, RightX: 0.5, RightY: 0.5},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, ok := resolve(tt.raw, 1920, 1080)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if pos.X != tt.wantX || pos.Y != tt.wantY {
				t.Fatalf("position = (%v, %v), want (%v, %v)", pos.X, pos.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCurrentPositionUsesNewestSample(t *testing.T) {
	drv := &fakeDriver{}
	s := newTrackingService(t, drv)

	drv.emit(RawSample{LeftX: 0.1, LeftY: 0.1, RightX: 0.1, RightY: 0.1, LeftValid: true, RightValid: true})
	drv.emit(RawSample{LeftX: 0.8, LeftY: 0.6, RightX: 0.8, RightY: 0.6, LeftValid: true, RightValid: true})

	pos, ok := s.CurrentPosition()
	if !ok {
		t.Fatal("expected a position")
	}
	if pos.X != 0.8*1920 || pos.Y != 0.6*1080 {
		t.Fatalf("position = (%v, %v), want newest sample", pos.X, pos.Y)
	}
}

func TestCurrentPositionEmptyBuffer(t *testing.T) {
	drv := &fakeDriver{}
	s := NewService(drv, 1920, 1080, 100, nil)
	if _, ok := s.CurrentPosition(); ok {
		t.Fatal("expected no position before any sample")
	}
}

func TestBufferCapsAtConfiguredSize(t *testing.T) {
	drv := &fakeDriver{}
	s := NewService(drv, 1920, 1080, 100, nil)
	if err := s.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 150; i++ {
		drv.emit(RawSample{
			LeftX: float64(i) / 150, LeftY: 0.5,
			RightX: float64(i) / 150, RightY: 0.5,
			LeftValid: true, RightValid: true,
		})
	}

	if got := s.Status().BufferSize; got != 100 {
		t.Fatalf("buffer size = %d, want 100", got)
	}
	pos, ok := s.CurrentPosition()
	if !ok {
		t.Fatal("expected a position")
	}
	if want := 149.0 / 150 * 1920; pos.X != want {
		t.Fatalf("newest position X = %v, want %v", pos.X, want)
	}
}

func TestStartRequiresConnection(t *testing.T) {
	s := NewService(&fakeDriver{}, 1920, 1080, 100, nil)
	if err := s.Start(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestStartTwiceSubscribesOnce(t *testing.T) {
	drv := &fakeDriver{}
	s := newTrackingService(t, drv)
	if err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if drv.subscribes != 1 {
		t.Fatalf("subscribes = %d, want 1", drv.subscribes)
	}
	if !s.Status().Tracking {
		t.Fatal("expected tracking status")
	}
}

func TestStopEndsTracking(t *testing.T) {
	drv := &fakeDriver{}
	s := newTrackingService(t, drv)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if drv.unsubscribes != 1 {
		t.Fatalf("unsubscribes = %d, want 1", drv.unsubscribes)
	}
	st := s.Status()
	if st.Tracking {
		t.Fatal("still tracking after Stop")
	}
	if !st.Connected {
		t.Fatal("Stop must not drop the connection")
	}
}

func TestStopWithoutConnection(t *testing.T) {
	s := NewService(&fakeDriver{}, 1920, 1080, 100, nil)
	if err := s.Stop(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestListenersReceiveResolvedPositionsOnly(t *testing.T) {
	drv := &fakeDriver{}
	s := newTrackingService(t, drv)

	var mu sync.Mutex
	var got []Position
	s.AddListener(func(p Position) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	})

	drv.emit(RawSample{LeftX: 0.5, LeftY: 0.5, RightX: 0.5, RightY: 0.5, LeftValid: true, RightValid: true})
	drv.emit(RawSample{Timestamp: time.Now()}) // blink: nothing to push

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("listener saw %d positions, want 1", len(got))
	}
	if got[0].X != 0.5*1920 {
		t.Fatalf("listener position X = %v", got[0].X)
	}
}

func TestStatusCarriesDeviceAndContext(t *testing.T) {
	drv := &fakeDriver{}
	s := newTrackingService(t, drv)
	s.SetImageContext("7.png")

	st := s.Status()
	if !st.Connected || !st.Tracking {
		t.Fatalf("status = %+v", st)
	}
	if st.Model != "FakeTracker" || st.DeviceName != "bench unit" || st.Serial != "F-1" {
		t.Fatalf("device identity = %+v", st)
	}
	if st.CurrentImage != "7.png" {
		t.Fatalf("current image = %q", st.CurrentImage)
	}
}
