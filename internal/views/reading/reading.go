// Package reading provides the reading view: the open page, its
// narration, and the full-screen presentation with the gaze marker.
package reading

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/zekun-wu/EyeReadDemo/internal/audio"
	"github.com/zekun-wu/EyeReadDemo/internal/client"
	"github.com/zekun-wu/EyeReadDemo/internal/gaze"
	"github.com/zekun-wu/EyeReadDemo/internal/theme"
)

// MarkerFPS is the presentation frame rate the marker spring is tuned
// for.
const MarkerFPS = 30

const markerGlyph = "◉"

// NarrationMsg is returned after a narration request.
type NarrationMsg struct {
	Narration *client.Narration
	Err       error
}

// PlaybackMsg is returned after audio playback finishes.
type PlaybackMsg struct {
	Err error
}

// PresentMsg asks the app to enter full-screen presentation, with or
// without eye tracking.
type PresentMsg struct {
	Tracked bool
}

// BackMsg asks the app to return to the picture shelf.
type BackMsg struct{}

// KeyMap holds the reading view key bindings.
type KeyMap struct {
	Left       key.Binding
	Right      key.Binding
	Narrate    key.Binding
	Play       key.Binding
	Present    key.Binding
	FullScreen key.Binding
	Back       key.Binding
}

// DefaultKeyMap returns the default reading view key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev page"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next page"),
		),
		Narrate: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "narrate"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "play audio"),
		),
		Present: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "present with gaze"),
		),
		FullScreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "full screen"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "shelf"),
		),
	}
}

// Model is the reading view model.
type Model struct {
	api    *client.API
	player audio.Player
	keys   KeyMap

	pages []string
	index int
	story bool

	age      int
	language string

	narration *client.Narration
	rendered  string
	errMsg    string

	narrating bool
	playing   bool
	spin      spinner.Model

	renderer  *glamour.TermRenderer
	rendWidth int

	// Marker spring state, in presentation cell coordinates.
	spring     harmonica.Spring
	markerX    float64
	markerY    float64
	velX       float64
	velY       float64
	targetX    float64
	targetY    float64
	haveTarget bool

	screenW float64
	screenH float64

	width  int
	height int
}

// New creates a reading view. screenW and screenH describe the tracked
// display the gaze samples are expressed in.
func New(api *client.API, player audio.Player, screenW, screenH float64) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorSelection)
	return Model{
		api:     api,
		player:  player,
		keys:    DefaultKeyMap(),
		spin:    sp,
		spring:  harmonica.NewSpring(harmonica.FPS(MarkerFPS), 6.0, 0.7),
		screenW: screenW,
		screenH: screenH,
	}
}

// Open loads a set of pages into the view. In story mode the pages are
// the reader's picks, narrated together; otherwise they are the whole
// shelf with index pointing at the open picture.
func (m *Model) Open(pages []string, index int, story bool) {
	m.pages = append([]string(nil), pages...)
	if index < 0 {
		index = 0
	}
	if index >= len(m.pages) {
		index = len(m.pages) - 1
	}
	m.index = index
	m.story = story
	m.narration = nil
	m.rendered = ""
	m.errMsg = ""
	m.narrating = false
	m.playing = false
	m.ResetMarker()
}

// SetProfile updates the reader profile used for narration requests.
func (m *Model) SetProfile(age int, language string) {
	m.age = age
	m.language = language
}

// SetSize updates the available rendering area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if w := m.narrationWidth(); w != m.rendWidth {
		m.rendWidth = w
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(w),
		)
		if err == nil {
			m.renderer = r
		}
		if m.narration != nil {
			m.rendered = m.renderNarration()
		}
	}
}

// CurrentPage returns the open picture.
func (m Model) CurrentPage() (string, bool) {
	if len(m.pages) == 0 {
		return "", false
	}
	return m.pages[m.index], true
}

// Narration returns the last narration, if any.
func (m Model) Narration() *client.Narration {
	return m.narration
}

// Update handles messages for the reading view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.narrating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case NarrationMsg:
		m.narrating = false
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.narration = msg.Narration
		m.rendered = m.renderNarration()
		return m, nil

	case PlaybackMsg:
		m.playing = false
		if msg.Err != nil {
			m.errMsg = "playback: " + msg.Err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.TurnPage(-1)

	case key.Matches(msg, m.keys.Right):
		m.TurnPage(1)

	case key.Matches(msg, m.keys.Narrate):
		if m.narrating || len(m.pages) == 0 {
			break
		}
		m.narrating = true
		m.errMsg = ""
		return m, tea.Batch(m.narrateCmd(), m.spin.Tick)

	case key.Matches(msg, m.keys.Play):
		if m.playing {
			break
		}
		if m.narration == nil || m.narration.AudioURL == "" {
			m.errMsg = "no audio yet, narrate first"
			break
		}
		m.playing = true
		m.errMsg = ""
		return m, m.playCmd(m.narration.AudioURL)

	case key.Matches(msg, m.keys.Present):
		if len(m.pages) == 0 {
			break
		}
		return m, func() tea.Msg { return PresentMsg{Tracked: true} }

	case key.Matches(msg, m.keys.FullScreen):
		if len(m.pages) == 0 {
			break
		}
		return m, func() tea.Msg { return PresentMsg{Tracked: false} }

	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

// TurnPage moves within the open pages. A turn in page mode drops the
// narration, which belonged to the previous picture; a story narration
// covers the whole pick and survives turning.
func (m *Model) TurnPage(delta int) {
	next := m.index + delta
	if next < 0 || next >= len(m.pages) {
		return
	}
	m.index = next
	m.errMsg = ""
	if !m.story {
		m.narration = nil
		m.rendered = ""
	}
}

func (m Model) narratePages() []string {
	if m.story {
		return append([]string(nil), m.pages...)
	}
	if name, ok := m.CurrentPage(); ok {
		return []string{name}
	}
	return nil
}

func (m Model) narrateCmd() tea.Cmd {
	api := m.api
	pages := m.narratePages()
	age, language := m.age, m.language
	return func() tea.Msg {
		n, err := api.Narrate(context.Background(), pages, age, language)
		return NarrationMsg{Narration: n, Err: err}
	}
}

func (m Model) playCmd(audioURL string) tea.Cmd {
	api, player := m.api, m.player
	return func() tea.Msg {
		return PlaybackMsg{Err: player.Play(context.Background(), api.AudioURL(audioURL))}
	}
}

func (m Model) renderNarration() string {
	if m.narration == nil {
		return ""
	}
	src := m.narration.Text
	if m.renderer == nil {
		return src
	}
	out, err := m.renderer.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) narrationWidth() int {
	w := m.width/2 - 6
	if w < 20 {
		w = 20
	}
	return w
}

// SetGazeTarget retargets the marker spring at the cell the sample maps
// to. The first target snaps the marker instead of springing across the
// whole page.
func (m *Model) SetGazeTarget(s gaze.Sample) {
	cols, rows := m.presentCanvasSize()
	col, row := CellForSample(s, m.screenW, m.screenH, cols, rows)
	m.targetX, m.targetY = float64(col), float64(row)
	if !m.haveTarget {
		m.markerX, m.markerY = m.targetX, m.targetY
		m.haveTarget = true
	}
}

// AdvanceMarker steps the marker spring one frame toward the target.
func (m *Model) AdvanceMarker() {
	if !m.haveTarget {
		return
	}
	m.markerX, m.velX = m.spring.Update(m.markerX, m.velX, m.targetX)
	m.markerY, m.velY = m.spring.Update(m.markerY, m.velY, m.targetY)
}

// ResetMarker forgets the marker position between sessions.
func (m *Model) ResetMarker() {
	m.haveTarget = false
	m.velX, m.velY = 0, 0
}

func (m Model) presentCanvasSize() (cols, rows int) {
	cols = m.width - 4
	if cols < 20 {
		cols = 20
	}
	rows = m.height - 4
	if rows < 8 {
		rows = 8
	}
	return cols, rows
}

// View renders the normal reading screen.
func (m Model) View() string {
	name, ok := m.CurrentPage()
	if !ok {
		return theme.StyleBorder.Padding(1, 2).Render(
			theme.StyleDimmed.Render("Nothing open. Pick a picture from the shelf."))
	}

	header := theme.StyleHeader.Render(name)
	if m.story {
		header += theme.StyleDimmed.Render(fmt.Sprintf("  story · %d pictures", len(m.pages)))
	}

	panelW := m.width/2 - 4
	if panelW < 24 {
		panelW = 24
	}
	panelH := m.height - 10
	if panelH < 7 {
		panelH = 7
	}
	canvas := pageCanvas(name, m.index+1, len(m.pages), panelW-4, panelH-2)
	page := theme.StyleBorder.Padding(0, 1).Render(
		theme.StyleDimmed.Render(strings.Join(canvas, "\n")))

	narr := m.narrationPanel(panelH)

	body := lipgloss.JoinHorizontal(lipgloss.Top, page, " ", narr)

	help := theme.StyleDimmed.Render(
		"n: narrate  p: play  t: present with gaze  f: full screen  h/l: page  esc: shelf")

	sections := []string{header, "", body, "", help}
	if m.errMsg != "" {
		sections = append(sections, theme.StyleNotice.Render(m.errMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) narrationPanel(panelH int) string {
	w := m.narrationWidth()

	var content string
	switch {
	case m.narrating:
		content = m.spin.View() + " thinking up a story..."
	case m.narration != nil:
		content = m.rendered
		if m.narration.AudioURL != "" {
			hint := "♪ press p to hear it"
			if m.playing {
				hint = "♪ playing..."
			}
			content += "\n\n" + theme.StyleDimmed.Render(hint)
		}
	default:
		content = theme.StyleDimmed.Render("Press n and I'll tell you about this picture.")
	}

	return theme.StyleBorder.
		Padding(0, 1).
		Width(w + 2).
		Height(panelH).
		Render(content)
}

// PresentView renders the full-screen presentation: the page canvas
// with the gaze marker on top. The marker shows only while the session
// is actually tracking.
func (m Model) PresentView(tracking bool, state string) string {
	name, ok := m.CurrentPage()
	if !ok {
		return ""
	}

	cols, rows := m.presentCanvasSize()
	canvas := pageCanvas(name, m.index+1, len(m.pages), cols, rows)

	markerCol := int(math.Round(m.markerX))
	markerRow := int(math.Round(m.markerY))

	dim := theme.StyleDimmed
	out := make([]string, 0, rows+2)
	for y, line := range canvas {
		line = padLine(line, cols)
		if tracking && m.haveTarget && y == markerRow {
			if left, right, ok := spliceRow(line, markerCol); ok {
				out = append(out, dim.Render(left)+theme.StyleMarker.Render(markerGlyph)+dim.Render(right))
				continue
			}
		}
		out = append(out, dim.Render(line))
	}

	page := theme.StyleBorder.Render(strings.Join(out, "\n"))

	stateStr := lipgloss.NewStyle().Foreground(theme.StateColor(state)).Render(
		theme.StateGlyph(state) + " " + state)
	footer := stateStr + theme.StyleDimmed.Render("  ·  esc: back  h/l: turn page  q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, page, footer)
}
