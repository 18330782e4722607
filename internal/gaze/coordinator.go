package gaze

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultLifecycleTimeout bounds each device session call. A connect or
// start that never resolves is treated exactly like one that failed.
const DefaultLifecycleTimeout = 5 * time.Second

// ErrAttemptInFlight is returned by EnterTracking when a lifecycle
// attempt or teardown is already running. Attempts are never
// interleaved; callers retry once the machine settles.
var ErrAttemptInFlight = errors.New("gaze: session attempt already in flight")

// Controller is the device session surface the coordinator drives. All
// five calls are blocking and honor context cancellation; the lifecycle
// calls report their outcome as a Result value.
type Controller interface {
	Connect(ctx context.Context) Result
	SetContext(ctx context.Context, imageFile string) Result
	Start(ctx context.Context) Result
	Stop(ctx context.Context) Result
	Sample(ctx context.Context) (Sample, bool, error)
}

// Presenter is the platform boundary for full-screen presentation. Both
// calls are fire-and-forget requests; the platform confirms actual
// changes back through Coordinator.FullScreenChanged.
type Presenter interface {
	EnterFullScreen()
	ExitFullScreen()
}

// EventKind distinguishes what an Event announces beyond the state
// snapshot it carries.
type EventKind int

const (
	// EventState is a plain lifecycle transition.
	EventState EventKind = iota
	// EventNotice carries a user-visible failure message.
	EventNotice
	// EventDegraded announces full-screen presentation without tracking.
	EventDegraded
)

// Event is one coordinator announcement for the UI. Events carry a
// snapshot of state and mode at the moment of the transition.
type Event struct {
	Kind   EventKind
	State  State
	Mode   Mode
	Notice string
}

// CoordinatorConfig tunes session mechanics. Zero values pick the
// defaults.
type CoordinatorConfig struct {
	PollInterval     time.Duration
	LifecycleTimeout time.Duration
}

// Coordinator owns the tracking session state machine: it drives the
// connect, set-context, start sequence against the device, enters and
// leaves full-screen presentation, runs the poller while Tracking, and
// retains the latest sample for the overlay.
//
// All methods are safe for concurrent use. EnterTracking and
// ExitTracking block and are meant to run on command goroutines, never
// on the render path.
type Coordinator struct {
	controller Controller
	timeout    time.Duration
	log        *slog.Logger
	poller     *Poller

	mu         sync.Mutex
	presenter  Presenter
	state      State
	mode       Mode
	imageFile  string
	connected  bool // connect succeeded in the current attempt
	lastTick   uint64
	latest     *Sample
	eventDrops int

	events       chan Event
	sampleNotify chan struct{}
}

func NewCoordinator(ctrl Controller, cfg CoordinatorConfig, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := cfg.LifecycleTimeout
	if timeout <= 0 {
		timeout = DefaultLifecycleTimeout
	}
	c := &Coordinator{
		controller:   ctrl,
		timeout:      timeout,
		log:          log,
		events:       make(chan Event, 32),
		sampleNotify: make(chan struct{}, 1),
	}
	c.poller = NewPoller(cfg.PollInterval, ctrl.Sample, c.applySample, log)
	return c
}

// SetPresenter wires the platform boundary. Until one is set, full
// screen requests are dropped (headless operation).
func (c *Coordinator) SetPresenter(p Presenter) {
	c.mu.Lock()
	c.presenter = p
	c.mu.Unlock()
}

// Events delivers lifecycle transitions and notices. Sends never block;
// if the consumer falls behind, events are dropped and counted.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// SampleReady pulses when a fresh sample has been retained. The channel
// holds at most one pending pulse, so a slow consumer sees one wakeup
// and then reads the newest sample, never a backlog.
func (c *Coordinator) SampleReady() <-chan struct{} {
	return c.sampleNotify
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode returns the current presentation mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ImageFile returns the page bound to the current session, if any.
func (c *Coordinator) ImageFile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageFile
}

// LatestSample returns a copy of the most recent retained sample.
// Reading never blocks the poller.
func (c *Coordinator) LatestSample() (Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return Sample{}, false
	}
	return *c.latest, true
}

// EnterTracking runs the full enter-tracking sequence for the given
// page: connect, bind the image context, start the gaze stream. On
// success the session is Tracking inside full-screen presentation with
// the poller running. A live or failed session is torn down first; an
// attempt already in flight is rejected with ErrAttemptInFlight.
//
// Failure handling is deliberately uneven, matching how readers
// experience it: a failed connect surfaces a notice and nothing else
// happens, while context and start failures degrade quietly so the
// child still gets the full-screen page.
func (c *Coordinator) EnterTracking(ctx context.Context, imageFile string) error {
	c.mu.Lock()
	if c.state == Tracking || c.state == Failed {
		c.mu.Unlock()
		c.ExitTracking("superseded by new tracking request")
		c.mu.Lock()
	}
	if c.state != Idle {
		c.mu.Unlock()
		return ErrAttemptInFlight
	}
	c.state = Connecting
	c.imageFile = imageFile
	c.connected = false
	c.emitLocked(Event{Kind: EventState, State: Connecting, Mode: c.mode})
	c.mu.Unlock()

	res := c.call(ctx, c.controller.Connect)
	if !res.OK {
		c.log.Warn("eye tracker connect failed", "message", res.Message)
		c.mu.Lock()
		c.state = Failed
		c.emitLocked(Event{Kind: EventNotice, State: Failed, Mode: c.mode, Notice: "eye tracker unavailable: " + res.Message})
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.connected = true
	c.state = Connected
	c.emitLocked(Event{Kind: EventState, State: Connected, Mode: c.mode})
	c.mu.Unlock()

	// The context bind is advisory: a failure is logged and the
	// sequence moves on, so narration and tracking still line up in the
	// common case without making the rare miss fatal.
	if res := c.call(ctx, func(ctx context.Context) Result {
		return c.controller.SetContext(ctx, imageFile)
	}); !res.OK {
		c.log.Warn("image context bind failed", "image", imageFile, "message", res.Message)
	}

	c.mu.Lock()
	c.state = ContextBound
	c.emitLocked(Event{Kind: EventState, State: ContextBound, Mode: c.mode})
	c.mu.Unlock()

	res = c.call(ctx, c.controller.Start)
	if !res.OK {
		c.log.Warn("gaze stream start failed, presenting without tracking", "message", res.Message)
		c.mu.Lock()
		c.state = Failed
		c.mode = ModeFullScreen
		presenter := c.presenter
		c.emitLocked(Event{Kind: EventDegraded, State: Failed, Mode: ModeFullScreen})
		c.mu.Unlock()
		if presenter != nil {
			presenter.EnterFullScreen()
		}
		return nil
	}

	c.mu.Lock()
	c.state = Tracking
	c.mode = ModeFullScreen
	c.lastTick = 0
	c.latest = nil
	presenter := c.presenter
	c.emitLocked(Event{Kind: EventState, State: Tracking, Mode: ModeFullScreen})
	// Started under the lock so a concurrent teardown cannot observe
	// Tracking before the loop exists; Stop then always finds it.
	if err := c.poller.Start(context.Background()); err != nil {
		c.log.Error("poller start rejected", "err", err)
	}
	c.mu.Unlock()
	if presenter != nil {
		presenter.EnterFullScreen()
	}
	c.log.Info("tracking session started", "image", imageFile)
	return nil
}

// ExitTracking is the single teardown path. Every trigger converges
// here: the exit key, a platform-driven full-screen exit, page turns,
// quitting, dismissing a failure. The first caller flips the machine to
// Stopping; duplicates observe Stopping or Idle and return immediately.
//
// Teardown order is fixed: stop the poller (synchronous), tell the
// device to stop (best-effort), leave full-screen, settle at Idle.
func (c *Coordinator) ExitTracking(reason string) {
	c.mu.Lock()
	if c.state == Stopping || c.state == Idle {
		c.mu.Unlock()
		return
	}
	hadSession := c.connected
	wasFullScreen := c.mode == ModeFullScreen
	c.state = Stopping
	c.emitLocked(Event{Kind: EventState, State: Stopping, Mode: c.mode})
	c.mu.Unlock()

	c.log.Info("tracking teardown", "reason", reason)
	c.poller.Stop()

	if hadSession {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		if res := c.controller.Stop(ctx); !res.OK {
			// Never blocks teardown; the device cleans up on its own.
			c.log.Warn("device stop failed", "message", res.Message)
		}
		cancel()
	}

	c.mu.Lock()
	presenter := c.presenter
	c.mu.Unlock()
	if wasFullScreen && presenter != nil {
		presenter.ExitFullScreen()
	}

	c.mu.Lock()
	c.state = Idle
	c.mode = ModeNormal
	c.latest = nil
	c.lastTick = 0
	c.connected = false
	c.imageFile = ""
	c.emitLocked(Event{Kind: EventState, State: Idle, Mode: ModeNormal})
	c.mu.Unlock()
}

// Dismiss clears a Failed session. It rides the normal teardown so the
// degraded full-screen case leaves presentation the same way a tracked
// session does.
func (c *Coordinator) Dismiss() {
	c.ExitTracking("failure dismissed")
}

// Close tears down whatever is active. For program shutdown.
func (c *Coordinator) Close() {
	c.ExitTracking("shutting down")
}

// FullScreenChanged reconciles platform-driven presentation changes. An
// exit that the coordinator did not issue itself (terminal lost focus,
// window manager intervened) runs the same teardown as an explicit
// exit. Confirmations of entry need no action.
func (c *Coordinator) FullScreenChanged(active bool) {
	c.mu.Lock()
	wasFullScreen := c.mode == ModeFullScreen
	c.mu.Unlock()
	if !active && wasFullScreen {
		c.ExitTracking("full-screen exited by platform")
	}
}

// applySample is the poller's sink. Later ticks win: anything at or
// below the last applied tick is discarded, so a late response can
// never overwrite a newer position. Samples arriving outside Tracking
// (the brief window while teardown flips the state) are dropped.
func (c *Coordinator) applySample(tick uint64, s Sample) {
	c.mu.Lock()
	if c.state != Tracking || tick <= c.lastTick {
		c.mu.Unlock()
		return
	}
	c.lastTick = tick
	c.latest = &s
	c.mu.Unlock()
	select {
	case c.sampleNotify <- struct{}{}:
	default:
	}
}

// call runs one lifecycle operation under the bounded-wait guard.
func (c *Coordinator) call(ctx context.Context, op func(context.Context) Result) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return op(ctx)
}

// emitLocked queues an event without blocking. Callers hold c.mu.
func (c *Coordinator) emitLocked(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.eventDrops++
		c.log.Warn("lifecycle event dropped", "drops", c.eventDrops)
	}
}
