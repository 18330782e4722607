// Package theme provides the Lip Gloss color palette and reusable styles
// for the GlimmerRead TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Session state colors.
var (
	ColorIdle         = lipgloss.Color("#6b7280")
	ColorConnecting   = lipgloss.Color("#7c3aed")
	ColorConnected    = lipgloss.Color("#3b82f6")
	ColorContextBound = lipgloss.Color("#06b6d4")
	ColorTracking     = lipgloss.Color("#22c55e")
	ColorStopping     = lipgloss.Color("#d97706")
	ColorFailed       = lipgloss.Color("#dc2626")
)

// Reading surface colors.
var (
	ColorMarker    = lipgloss.Color("#f59e0b")
	ColorPage      = lipgloss.Color("#fde68a")
	ColorPageEdge  = lipgloss.Color("#92400e")
	ColorSelection = lipgloss.Color("#a855f7")
	ColorNarration = lipgloss.Color("#e5e7eb")
)

// Language colors for the profile screen.
var (
	ColorEnglish = lipgloss.Color("#3b82f6")
	ColorSpanish = lipgloss.Color("#f59e0b")
	ColorFrench  = lipgloss.Color("#ef4444")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// StateColor returns the color for a session state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "idle":
		return ColorIdle
	case "connecting":
		return ColorConnecting
	case "connected":
		return ColorConnected
	case "context_bound":
		return ColorContextBound
	case "tracking":
		return ColorTracking
	case "stopping":
		return ColorStopping
	case "failed":
		return ColorFailed
	default:
		return ColorDimmed
	}
}

// StateGlyph returns a glyph representing a session state name.
func StateGlyph(state string) string {
	switch state {
	case "idle":
		return "○"
	case "connecting":
		return "◌"
	case "connected":
		return "◎"
	case "context_bound":
		return "◉"
	case "tracking":
		return "●"
	case "stopping":
		return "◍"
	case "failed":
		return "✗"
	default:
		return "·"
	}
}

// LanguageColor returns the color for a reader language tag.
func LanguageColor(language string) lipgloss.Color {
	switch language {
	case "en-US":
		return ColorEnglish
	case "es-ES":
		return ColorSpanish
	case "fr-FR":
		return ColorFrench
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleNotice = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorDanger)

	StyleMarker = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorMarker)
)
