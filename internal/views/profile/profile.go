// Package profile provides the reader profile screen: who is reading
// today, how old they are, and what language the stories should use.
package profile

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zekun-wu/EyeReadDemo/internal/narration"
	"github.com/zekun-wu/EyeReadDemo/internal/theme"
)

// Languages the narration daemon has voices for.
var Languages = []string{"en-US", "es-ES", "fr-FR"}

// DoneMsg is emitted when the reader confirms the profile.
type DoneMsg struct {
	Age      int
	Language string
}

// KeyMap holds the profile screen key bindings.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Enter key.Binding
}

// DefaultKeyMap returns the default profile key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev field"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next field"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "lower"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "higher"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start reading"),
		),
	}
}

// Model is the profile screen model.
type Model struct {
	Age      int
	Language string

	keys KeyMap

	// row is the focused field: 0 age, 1 language.
	row int

	width int
}

// New creates a profile model with the configured starting values.
func New(age int, language string) Model {
	if age < narration.MinAge || age > narration.MaxAge {
		age = 5
	}
	lang := Languages[0]
	for _, l := range Languages {
		if l == language {
			lang = l
		}
	}
	return Model{
		Age:      age,
		Language: lang,
		keys:     DefaultKeyMap(),
	}
}

// SetWidth updates the available rendering width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// Update handles messages for the profile screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(keyMsg, m.keys.Down):
		if m.row < 1 {
			m.row++
		}

	case key.Matches(keyMsg, m.keys.Left):
		if m.row == 0 && m.Age > narration.MinAge {
			m.Age--
		}
		if m.row == 1 {
			m.Language = Languages[(langIndex(m.Language)+len(Languages)-1)%len(Languages)]
		}

	case key.Matches(keyMsg, m.keys.Right):
		if m.row == 0 && m.Age < narration.MaxAge {
			m.Age++
		}
		if m.row == 1 {
			m.Language = Languages[(langIndex(m.Language)+1)%len(Languages)]
		}

	case key.Matches(keyMsg, m.keys.Enter):
		age, lang := m.Age, m.Language
		return m, func() tea.Msg { return DoneMsg{Age: age, Language: lang} }
	}

	return m, nil
}

func langIndex(language string) int {
	for i, l := range Languages {
		if l == language {
			return i
		}
	}
	return 0
}

// View renders the profile screen.
func (m Model) View() string {
	title := theme.StyleHeader.Render("Who is reading today?")

	ageLine := m.fieldLine(0, "Age", fmt.Sprintf("‹ %d ›", m.Age))
	langValue := lipgloss.NewStyle().Foreground(theme.LanguageColor(m.Language)).Render(
		fmt.Sprintf("‹ %s ›", m.Language))
	langLine := m.fieldLine(1, "Language", langValue)

	help := theme.StyleDimmed.Render("j/k: field  h/l: change  enter: start reading")

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		ageLine,
		langLine,
		"",
		help,
	)

	return theme.StyleBorder.Padding(1, 2).Render(body)
}

func (m Model) fieldLine(row int, label, value string) string {
	cursor := "  "
	style := theme.StyleDimmed
	if m.row == row {
		cursor = "> "
		style = theme.StyleSelected
	}
	return cursor + style.Render(fmt.Sprintf("%-10s", label)) + value
}
