// Package status provides the status bar shown under every screen.
package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/zekun-wu/EyeReadDemo/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	DaemonUp   bool
	DeviceName string
	State      string
	Age        int
	Language   string
	Pictures   int
	Width      int
}

// New creates a status bar model.
func New() Model {
	return Model{State: "idle"}
}

// SetProfile updates the reader profile shown on the bar.
func (m *Model) SetProfile(age int, language string) {
	m.Age = age
	m.Language = language
}

// SetSession updates the session state shown on the bar.
func (m *Model) SetSession(state string) {
	m.State = state
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.DaemonUp {
		label := "● Daemon up"
		if m.DeviceName != "" {
			label = "● " + m.DeviceName
		}
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(label)
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Daemon unreachable")
	}

	session := lipgloss.NewStyle().Foreground(theme.StateColor(m.State)).Render(
		fmt.Sprintf("%s %s", theme.StateGlyph(m.State), m.State),
	)

	profile := fmt.Sprintf("reader %d · %s", m.Age,
		lipgloss.NewStyle().Foreground(theme.LanguageColor(m.Language)).Render(m.Language))

	shelf := theme.StyleDimmed.Render(fmt.Sprintf("%d pictures", m.Pictures))

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + session + sep + profile + sep + shelf

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
