package styles

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Red)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(Subtext0)

	HintStyle = lipgloss.NewStyle().
			Foreground(Overlay0)
)

type StatusType int

const (
	StatusConnected StatusType = iota
	StatusDisconnected
	StatusError
)

// StatusColor returns the indicator color for status
func StatusColor(status StatusType) lipgloss.Color {
	switch status {
	case StatusConnected:
		return Green
	case StatusDisconnected:
		return Yellow
	default:
		return Red
	}
}

// ModeStyle is the block style of the NORMAL/INSERT indicator
func ModeStyle(insert bool) lipgloss.Style {
	bg := Blue
	if insert {
		bg = Green
	}
	return lipgloss.NewStyle().
		Foreground(Base).
		Background(bg).
		Bold(true).
		Padding(0, 1)
}
