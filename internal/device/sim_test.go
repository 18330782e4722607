package device

import (
	"sync"
	"testing"
	"time"
)

func collectSamples(t *testing.T, d *SimDriver, n int) []RawSample {
	t.Helper()
	var mu sync.Mutex
	var got []RawSample
	if err := d.Subscribe(func(s RawSample) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		enough := len(got) >= n
		mu.Unlock()
		if enough {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if err := d.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) < n {
		t.Fatalf("collected %d samples, want at least %d", len(got), n)
	}
	return got
}

func TestSimStreamStaysOnDisplayArea(t *testing.T) {
	d := NewSimDriver(500, 0.05, 42)
	samples := collectSamples(t, d, 40)

	valid := 0
	for _, s := range samples {
		if s.LeftValid {
			valid++
			if s.LeftX < 0 || s.LeftX > 1 || s.LeftY < 0 || s.LeftY > 1 {
				t.Fatalf("left eye off display: %+v", s)
			}
		}
		if s.RightValid {
			if s.RightX < 0 || s.RightX > 1 || s.RightY < 0 || s.RightY > 1 {
				t.Fatalf("right eye off display: %+v", s)
			}
		}
	}
	if valid == 0 {
		t.Fatal("no valid samples in the stream")
	}
}

func TestSimBlinkChanceOneLosesBothEyes(t *testing.T) {
	d := NewSimDriver(500, 1.0, 7)
	for _, s := range collectSamples(t, d, 10) {
		if s.LeftValid || s.RightValid {
			t.Fatalf("expected a blink, got %+v", s)
		}
	}
}

func TestSimDoubleSubscribe(t *testing.T) {
	d := NewSimDriver(500, 0, 1)
	if err := d.Subscribe(func(RawSample) {}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer d.Unsubscribe()
	if err := d.Subscribe(func(RawSample) {}); err == nil {
		t.Fatal("expected an error on double subscribe")
	}
}

func TestSimUnsubscribeStopsStreamAndIsIdempotent(t *testing.T) {
	d := NewSimDriver(500, 0, 1)
	var mu sync.Mutex
	count := 0
	if err := d.Subscribe(func(RawSample) {
		mu.Lock()
		count++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		enough := count > 0
		mu.Unlock()
		if enough {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	if err := d.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	mu.Lock()
	after := count
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	if count != after {
		mu.Unlock()
		t.Fatal("stream kept emitting after Unsubscribe")
	}
	mu.Unlock()

	if err := d.Unsubscribe(); err != nil {
		t.Fatalf("second Unsubscribe: %v", err)
	}
}
