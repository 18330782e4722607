package device

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

// SimDriver synthesizes a child's wandering gaze for machines without a
// physical tracker: slow sweeps across the page with saccade-like
// jitter, an occasional blink where both eyes drop out, and rarer
// single-eye dropouts.
type SimDriver struct {
	rate  int
	blink float64
	seed  int64

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSimDriver creates a simulated tracker emitting at rate samples per
// second. blinkChance is the per-sample probability of a blink. A zero
// seed picks one from the clock; tests pass a fixed seed.
func NewSimDriver(rate int, blinkChance float64, seed int64) *SimDriver {
	if rate <= 0 {
		rate = 60
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimDriver{rate: rate, blink: blinkChance, seed: seed}
}

func (d *SimDriver) Connect() (Info, error) {
	return Info{
		Model:  "SimTracker Fusion",
		Name:   "GlimmerRead virtual tracker",
		Serial: "SIM-0001",
	}, nil
}

func (d *SimDriver) Subscribe(fn func(RawSample)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return errors.New("device: gaze stream already subscribed")
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop = stop
	d.done = done
	go d.stream(fn, stop, done)
	return nil
}

func (d *SimDriver) Unsubscribe() error {
	d.mu.Lock()
	stop := d.stop
	done := d.done
	d.stop = nil
	d.done = nil
	d.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (d *SimDriver) Disconnect() {
	d.Unsubscribe()
}

func (d *SimDriver) stream(fn func(RawSample), stop, done chan struct{}) {
	defer close(done)
	rng := rand.New(rand.NewSource(d.seed))
	ticker := time.NewTicker(time.Second / time.Duration(d.rate))
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		fn(d.sampleAt(time.Since(start), rng))
	}
}

// sampleAt places the gaze on two slow out-of-phase sweeps, then adds
// per-eye jitter so the eyes never agree exactly, the way real
// binocular data looks.
func (d *SimDriver) sampleAt(elapsed time.Duration, rng *rand.Rand) RawSample {
	now := time.Now()
	if rng.Float64() < d.blink {
		return RawSample{Timestamp: now}
	}
	sec := elapsed.Seconds()
	cx := 0.5 + 0.35*math.Sin(2*math.Pi*sec/11)
	cy := 0.5 + 0.30*math.Sin(2*math.Pi*sec/17+1.3)
	jitter := func() float64 { return (rng.Float64() - 0.5) * 0.02 }
	s := RawSample{
		Timestamp:  now,
		LeftX:      clamp01(cx + jitter()),
		LeftY:      clamp01(cy + jitter()),
		RightX:     clamp01(cx + jitter()),
		RightY:     clamp01(cy + jitter()),
		LeftValid:  true,
		RightValid: true,
	}
	if rng.Float64() < d.blink/2 {
		s.LeftValid = false
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
