// Package modeselect provides the reading mode chooser: one picture at
// a time, or a handful of pictures narrated as one story.
package modeselect

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zekun-wu/EyeReadDemo/internal/theme"
)

// ChosenMsg is emitted when the reader picks a mode.
type ChosenMsg struct {
	Story bool
}

// KeyMap holds the mode chooser key bindings.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
}

// DefaultKeyMap returns the default mode chooser key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		),
	}
}

type option struct {
	title string
	blurb string
	story bool
}

var options = []option{
	{title: "Page", blurb: "one picture, one little story", story: false},
	{title: "Story", blurb: "up to four pictures woven together", story: true},
}

// Model is the mode chooser model.
type Model struct {
	keys   KeyMap
	cursor int
	width  int
}

// New creates a mode chooser model.
func New() Model {
	return Model{keys: DefaultKeyMap()}
}

// SetWidth updates the available rendering width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// Update handles messages for the mode chooser.
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
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Enter):
		story := options[m.cursor].story
		return m, func() tea.Msg { return ChosenMsg{Story: story} }
	}
	return m, nil
}

// View renders the mode chooser.
func (m Model) View() string {
	title := theme.StyleHeader.Render("How shall we read?")

	rows := make([]string, 0, len(options)+3)
	rows = append(rows, title, "")
	for i, opt := range options {
		cursor := "  "
		titleStyle := theme.StyleDimmed
		if i == m.cursor {
			cursor = "> "
			titleStyle = theme.StyleSelected
		}
		line := cursor + titleStyle.Render(opt.title) + "  " +
			theme.StyleDimmed.Render(opt.blurb)
		rows = append(rows, line)
	}
	rows = append(rows, "", theme.StyleDimmed.Render("j/k: move  enter: choose"))

	body := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return theme.StyleBorder.Padding(1, 2).Render(body)
}
