// Package app wires the GlimmerRead screens together: reader profile,
// mode choice, the picture shelf, reading, and full-screen presentation
// with gaze tracking.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zekun-wu/EyeReadDemo/internal/audio"
	"github.com/zekun-wu/EyeReadDemo/internal/client"
	"github.com/zekun-wu/EyeReadDemo/internal/config"
	"github.com/zekun-wu/EyeReadDemo/internal/gaze"
	"github.com/zekun-wu/EyeReadDemo/internal/theme"
	"github.com/zekun-wu/EyeReadDemo/internal/views/gallery"
	"github.com/zekun-wu/EyeReadDemo/internal/views/modeselect"
	"github.com/zekun-wu/EyeReadDemo/internal/views/profile"
	"github.com/zekun-wu/EyeReadDemo/internal/views/reading"
	"github.com/zekun-wu/EyeReadDemo/internal/views/status"
)

// statusPollEvery is how often the daemon status and shelf are
// refreshed in the background.
const statusPollEvery = 5 * time.Second

// Screen identifies the focused screen.
type Screen int

const (
	ScreenProfile Screen = iota
	ScreenMode
	ScreenGallery
	ScreenReading
	ScreenPresent
)

// --- Async messages ---

type coordEventMsg struct{ ev gaze.Event }

type sampleReadyMsg struct{}

type frameMsg time.Time

type statusTickMsg time.Time

type picturesMsg struct {
	pictures []string
	err      error
}

type statusMsg struct {
	status *client.Status
	err    error
}

type trackingDoneMsg struct{ err error }

type teardownDoneMsg struct{ quit bool }

// Model is the root application model.
type Model struct {
	cfg    *config.Config
	api    *client.API
	coord  *gaze.Coordinator
	keys   KeyMap
	ctx    context.Context
	cancel context.CancelFunc

	screen Screen

	// plainPresent marks full-screen viewing without a tracking
	// session, the path that stays available when the tracker is down.
	plainPresent bool

	profile profile.Model
	mode    modeselect.Model
	gallery gallery.Model
	reading reading.Model
	status  status.Model

	story  bool
	notice string

	width  int
	height int
}

// New creates the root model.
func New(cfg *config.Config, api *client.API, coord *gaze.Coordinator, player audio.Player) Model {
	ctx, cancel := context.WithCancel(context.Background())

	prof := profile.New(cfg.Client.Age, cfg.Client.Language)
	bar := status.New()
	bar.SetProfile(prof.Age, prof.Language)

	return Model{
		cfg:     cfg,
		api:     api,
		coord:   coord,
		keys:    DefaultKeyMap(),
		ctx:     ctx,
		cancel:  cancel,
		screen:  ScreenProfile,
		profile: prof,
		mode:    modeselect.New(),
		gallery: gallery.New(),
		reading: reading.New(api, player, cfg.Device.ScreenWidth, cfg.Device.ScreenHeight),
		status:  bar,
	}
}

// Init starts the background fetches and the coordinator listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchPictures(),
		m.fetchStatus(),
		m.waitEvent(),
		m.waitSample(),
		m.statusTick(),
	)
}

// Update handles all application messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.status.Width = msg.Width
		m.profile.SetWidth(msg.Width)
		m.mode.SetWidth(msg.Width)
		m.gallery.SetWidth(msg.Width)
		m.reading.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.BlurMsg:
		// The platform took the reader out of the presentation.
		if m.screen == ScreenPresent {
			if m.plainPresent {
				return m.leavePlainPresent()
			}
			return m, m.fullScreenLost()
		}
		return m, nil

	case coordEventMsg:
		m.status.SetSession(msg.ev.State.String())
		if msg.ev.Kind == gaze.EventNotice {
			m.notice = msg.ev.Notice
		}
		return m, m.waitEvent()

	case sampleReadyMsg:
		if m.screen == ScreenPresent {
			if s, ok := m.coord.LatestSample(); ok {
				m.reading.SetGazeTarget(s)
			}
		}
		return m, m.waitSample()

	case frameMsg:
		if m.screen != ScreenPresent {
			return m, nil
		}
		m.reading.AdvanceMarker()
		return m, m.frameTick()

	case statusTickMsg:
		return m, tea.Batch(m.fetchStatus(), m.fetchPictures(), m.statusTick())

	case picturesMsg:
		if msg.err == nil {
			m.gallery.SetPictures(msg.pictures)
			m.status.Pictures = len(msg.pictures)
		}
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.status.DaemonUp = false
			return m, nil
		}
		m.status.DaemonUp = true
		if msg.status.Connected {
			m.status.DeviceName = msg.status.DeviceName
		} else {
			m.status.DeviceName = ""
		}
		return m, nil

	case profile.DoneMsg:
		m.status.SetProfile(msg.Age, msg.Language)
		m.reading.SetProfile(msg.Age, msg.Language)
		m.screen = ScreenMode
		return m, nil

	case modeselect.ChosenMsg:
		m.story = msg.Story
		m.gallery.SetStory(msg.Story)
		m.screen = ScreenGallery
		return m, nil

	case gallery.OpenMsg:
		m.reading.Open(msg.Pages, msg.Index, msg.Story)
		m.screen = ScreenReading
		return m, nil

	case reading.PresentMsg:
		if msg.Tracked {
			page, ok := m.reading.CurrentPage()
			if !ok {
				return m, nil
			}
			return m, m.enterTracking(page)
		}
		m.plainPresent = true
		m.screen = ScreenPresent
		return m, tea.EnterAltScreen

	case reading.BackMsg:
		m.screen = ScreenGallery
		return m, nil

	case reading.NarrationMsg, reading.PlaybackMsg, spinner.TickMsg:
		var cmd tea.Cmd
		m.reading, cmd = m.reading.Update(msg)
		return m, cmd

	case trackingDoneMsg:
		if msg.err != nil {
			m.notice = "one session at a time, try again in a moment"
		}
		return m, nil

	case teardownDoneMsg:
		if msg.quit {
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case EnterFullScreenMsg:
		m.plainPresent = false
		m.screen = ScreenPresent
		m.reading.ResetMarker()
		return m, tea.Batch(tea.EnterAltScreen, m.confirmFullScreen(true), m.frameTick())

	case ExitFullScreenMsg:
		if m.screen == ScreenPresent && !m.plainPresent {
			m.screen = ScreenReading
			m.reading.ResetMarker()
			return m, tea.Batch(tea.ExitAltScreen, m.confirmFullScreen(false))
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// A failure notice is dismissed by the next key press, which still
	// does whatever it normally does.
	if m.notice != "" {
		m.notice = ""
		cmds = append(cmds, m.dismissFailure())
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		// Teardown first; quitting mid-session must still stop the
		// device and leave full screen.
		cmds = append(cmds, m.quit())
		return m, tea.Batch(cmds...)

	case m.screen == ScreenPresent:
		return m.handlePresentKey(msg, cmds)

	case key.Matches(msg, m.keys.Refresh):
		cmds = append(cmds, m.fetchPictures(), m.fetchStatus())
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Back):
		switch m.screen {
		case ScreenMode:
			m.screen = ScreenProfile
		case ScreenGallery:
			m.screen = ScreenMode
		case ScreenReading:
			// The reading view handles esc itself.
			var cmd tea.Cmd
			m.reading, cmd = m.reading.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	switch m.screen {
	case ScreenProfile:
		m.profile, cmd = m.profile.Update(msg)
	case ScreenMode:
		m.mode, cmd = m.mode.Update(msg)
	case ScreenGallery:
		m.gallery, cmd = m.gallery.Update(msg)
	case ScreenReading:
		m.reading, cmd = m.reading.Update(msg)
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handlePresentKey routes keys while the presentation is on screen.
// Page turns and escapes tear the session down; the session is bound to
// one page and never rebinds mid-flight.
func (m Model) handlePresentKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.plainPresent {
			model, cmd := m.leavePlainPresent()
			return model, tea.Batch(append(cmds, cmd)...)
		}
		cmds = append(cmds, m.exitTracking("presentation closed"))

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		delta := 1
		if key.Matches(msg, m.keys.Left) {
			delta = -1
		}
		m.reading.TurnPage(delta)
		if m.plainPresent {
			model, cmd := m.leavePlainPresent()
			return model, tea.Batch(append(cmds, cmd)...)
		}
		cmds = append(cmds, m.exitTracking("page turned"))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) leavePlainPresent() (tea.Model, tea.Cmd) {
	m.plainPresent = false
	m.screen = ScreenReading
	return m, tea.ExitAltScreen
}

// --- Commands ---

func (m Model) waitEvent() tea.Cmd {
	ctx, events := m.ctx, m.coord.Events()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			return coordEventMsg{ev: ev}
		}
	}
}

func (m Model) waitSample() tea.Cmd {
	ctx, ready := m.ctx, m.coord.SampleReady()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-ready:
			return sampleReadyMsg{}
		}
	}
}

func (m Model) frameTick() tea.Cmd {
	return tea.Tick(time.Second/reading.MarkerFPS, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) statusTick() tea.Cmd {
	return tea.Tick(statusPollEvery, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m Model) fetchPictures() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		pics, err := api.Pictures(ctx)
		return picturesMsg{pictures: pics, err: err}
	}
}

func (m Model) fetchStatus() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		st, err := api.Status(ctx)
		return statusMsg{status: st, err: err}
	}
}

func (m Model) enterTracking(page string) tea.Cmd {
	coord, ctx := m.coord, m.ctx
	return func() tea.Msg {
		return trackingDoneMsg{err: coord.EnterTracking(ctx, page)}
	}
}

func (m Model) exitTracking(reason string) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		coord.ExitTracking(reason)
		return teardownDoneMsg{}
	}
}

func (m Model) fullScreenLost() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		coord.FullScreenChanged(false)
		return teardownDoneMsg{}
	}
}

func (m Model) confirmFullScreen(active bool) tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		coord.FullScreenChanged(active)
		return nil
	}
}

func (m Model) dismissFailure() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		if coord.State() == gaze.Failed && coord.Mode() == gaze.ModeNormal {
			coord.Dismiss()
		}
		return teardownDoneMsg{}
	}
}

func (m Model) quit() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		coord.Close()
		return teardownDoneMsg{quit: true}
	}
}

// View renders the focused screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.screen == ScreenPresent {
		tracking := m.coord.State() == gaze.Tracking
		return m.reading.PresentView(tracking, m.coord.State().String())
	}

	var body string
	switch m.screen {
	case ScreenProfile:
		body = m.profile.View()
	case ScreenMode:
		body = m.mode.View()
	case ScreenGallery:
		body = m.gallery.View()
	case ScreenReading:
		body = m.reading.View()
	}

	sections := []string{m.status.View(), body}
	if m.notice != "" {
		sections = append(sections,
			theme.StyleNotice.Render(m.notice)+theme.StyleDimmed.Render("  (any key to dismiss)"))
	}
	sections = append(sections, theme.StyleDimmed.Render("r: refresh  q: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
