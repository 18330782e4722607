// Package gallery provides the picture shelf: the pages the daemon
// serves, paged for small terminals, with story-mode multi-select.
package gallery

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zekun-wu/EyeReadDemo/internal/narration"
	"github.com/zekun-wu/EyeReadDemo/internal/theme"
)

const perPage = 8

// OpenMsg is emitted when the reader opens pages in the reading view.
// In page mode Pages is the whole shelf and Index points at the chosen
// picture; in story mode Pages is the selection in pick order.
type OpenMsg struct {
	Pages []string
	Index int
	Story bool
}

// KeyMap holds the gallery key bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
	Enter  key.Binding
}

// DefaultKeyMap returns the default gallery key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev picture"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next picture"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left", "pgup"),
			key.WithHelp("h/←", "prev page"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right", "pgdown"),
			key.WithHelp("l/→", "next page"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pick for story"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
	}
}

// Model is the gallery model.
type Model struct {
	Pictures []string

	keys      KeyMap
	paginator paginator.Model

	// cursor indexes into the slice of the current paginator page.
	cursor int

	// story enables multi-select; selected holds filenames in pick order.
	story    bool
	selected []string

	width int
}

// New creates an empty gallery model.
func New() Model {
	p := paginator.New()
	p.Type = paginator.Dots
	p.PerPage = perPage
	p.ActiveDot = lipgloss.NewStyle().Foreground(theme.ColorBright).Render("•")
	p.InactiveDot = theme.StyleDimmed.Render("•")
	return Model{
		keys:      DefaultKeyMap(),
		paginator: p,
	}
}

// SetWidth updates the available rendering width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetStory switches between single-page and story selection.
func (m *Model) SetStory(story bool) {
	m.story = story
	if !story {
		m.selected = nil
	}
}

// Selected returns the story picks in pick order.
func (m Model) Selected() []string {
	return append([]string(nil), m.selected...)
}

// SetPictures replaces the shelf contents, keeping the cursor and any
// story picks that still exist.
func (m *Model) SetPictures(pictures []string) {
	m.Pictures = append([]string(nil), pictures...)
	m.paginator.SetTotalPages(len(m.Pictures))
	if m.paginator.Page >= m.paginator.TotalPages {
		m.paginator.Page = m.paginator.TotalPages - 1
	}
	if m.paginator.Page < 0 {
		m.paginator.Page = 0
	}
	m.clampCursor()

	present := make(map[string]bool, len(pictures))
	for _, p := range pictures {
		present[p] = true
	}
	kept := m.selected[:0]
	for _, s := range m.selected {
		if present[s] {
			kept = append(kept, s)
		}
	}
	m.selected = kept
}

// Current returns the picture under the cursor.
func (m Model) Current() (string, bool) {
	idx, ok := m.currentIndex()
	if !ok {
		return "", false
	}
	return m.Pictures[idx], true
}

func (m Model) currentIndex() (int, bool) {
	if len(m.Pictures) == 0 {
		return 0, false
	}
	start, end := m.paginator.GetSliceBounds(len(m.Pictures))
	idx := start + m.cursor
	if idx >= end {
		idx = end - 1
	}
	return idx, true
}

func (m *Model) clampCursor() {
	start, end := m.paginator.GetSliceBounds(len(m.Pictures))
	if n := end - start; m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles messages for the gallery.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, m.keys.Down):
		start, end := m.paginator.GetSliceBounds(len(m.Pictures))
		if m.cursor < end-start-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, m.keys.Left):
		m.paginator.PrevPage()
		m.cursor = 0

	case key.Matches(keyMsg, m.keys.Right):
		m.paginator.NextPage()
		m.cursor = 0

	case key.Matches(keyMsg, m.keys.Select):
		if m.story {
			m.toggleSelect()
		}

	case key.Matches(keyMsg, m.keys.Enter):
		return m, m.open()
	}

	return m, nil
}

func (m *Model) toggleSelect() {
	name, ok := m.Current()
	if !ok {
		return
	}
	for i, s := range m.selected {
		if s == name {
			m.selected = append(m.selected[:i], m.selected[i+1:]...)
			return
		}
	}
	if len(m.selected) >= narration.DefaultMaxImages {
		return
	}
	m.selected = append(m.selected, name)
}

func (m Model) open() tea.Cmd {
	if m.story {
		pages := m.Selected()
		if len(pages) == 0 {
			if name, ok := m.Current(); ok {
				pages = []string{name}
			}
		}
		if len(pages) == 0 {
			return nil
		}
		return func() tea.Msg { return OpenMsg{Pages: pages, Story: true} }
	}

	idx, ok := m.currentIndex()
	if !ok {
		return nil
	}
	pages := append([]string(nil), m.Pictures...)
	return func() tea.Msg { return OpenMsg{Pages: pages, Index: idx} }
}

// View renders the gallery.
func (m Model) View() string {
	header := theme.StyleHeader.Render("Picture shelf")
	if m.story {
		header += theme.StyleDimmed.Render(
			fmt.Sprintf("  (story: %d of %d picked)", len(m.selected), narration.DefaultMaxImages))
	}

	if len(m.Pictures) == 0 {
		empty := theme.StyleDimmed.Render("No pictures yet. Drop some into the daemon's pictures folder.")
		return theme.StyleBorder.Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", empty))
	}

	start, end := m.paginator.GetSliceBounds(len(m.Pictures))
	rows := make([]string, 0, end-start+5)
	rows = append(rows, header, "")
	for i, name := range m.Pictures[start:end] {
		cursor := "  "
		style := theme.StyleDimmed
		if i == m.cursor {
			cursor = "> "
			style = theme.StyleSelected
		}
		mark := "  "
		if pos := m.pickOrder(name); pos > 0 {
			mark = lipgloss.NewStyle().Foreground(theme.ColorSelection).Render(fmt.Sprintf("%d ", pos))
		}
		rows = append(rows, cursor+mark+style.Render(name))
	}

	rows = append(rows, "", "  "+m.paginator.View())

	help := "j/k: move  h/l: page  enter: open"
	if m.story {
		help = "j/k: move  h/l: page  space: pick  enter: read story"
	}
	rows = append(rows, theme.StyleDimmed.Render(help))

	body := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return theme.StyleBorder.Padding(1, 2).Render(body)
}

func (m Model) pickOrder(name string) int {
	for i, s := range m.selected {
		if s == name {
			return i + 1
		}
	}
	return 0
}
