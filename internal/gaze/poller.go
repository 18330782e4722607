package gaze

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is the fixed cadence of gaze sampling while a
// session is Tracking. The cadence is constant for the lifetime of a
// session; it never adapts to load or latency.
const DefaultPollInterval = 50 * time.Millisecond

// ErrPollerRunning is returned by Start when a polling loop is already
// active. Exactly one loop may exist at a time.
var ErrPollerRunning = errors.New("gaze: poller already running")

// FetchFunc retrieves the device's current sample. ok is false when the
// device answered but holds no valid gaze right now (reader blinked or
// looked away); that is not an error.
type FetchFunc func(ctx context.Context) (Sample, bool, error)

// ApplyFunc receives one fetched sample together with the tick that
// issued the request. Ticks increase monotonically within a session, so
// sinks can discard anything older than what they already applied.
type ApplyFunc func(tick uint64, s Sample)

// Poller drives gaze sampling at a fixed interval on a single goroutine.
// The fetch runs synchronously inside the loop, so requests never
// overlap: a response slower than the interval simply absorbs the ticks
// that elapsed while it was in flight.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	apply    ApplyFunc
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(interval time.Duration, fetch FetchFunc, apply ApplyFunc, log *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{interval: interval, fetch: fetch, apply: apply, log: log}
}

// Start launches the polling loop. Starting a running poller returns
// ErrPollerRunning.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return ErrPollerRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.run(ctx, done)
	return nil
}

// Stop halts the loop and waits for it to exit. Once Stop returns, no
// further sample reaches the apply sink, even when a request was still
// in flight; its late response is discarded. Stopping an idle poller is
// a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()
	if done == nil {
		return
	}
	if cancel != nil {
		cancel()
	}
	<-done
	p.mu.Lock()
	if p.done == done {
		p.done = nil
	}
	p.mu.Unlock()
}

// Running reports whether a polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		tick++
		s, ok, err := p.fetch(ctx)
		if ctx.Err() != nil {
			// Stopped while the request was in flight. The response,
			// whatever it was, must not be applied.
			return
		}
		if err != nil {
			// One bad tick keeps the previous sample and the loop alive.
			p.log.Debug("gaze fetch failed", "tick", tick, "err", err)
			continue
		}
		if !ok {
			continue
		}
		p.apply(tick, s)
	}
}
