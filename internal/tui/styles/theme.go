package styles

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha palette
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Teal   = lipgloss.Color("#94e2d5")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Base).
			Background(Mauve).
			Padding(0, 1)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(Subtext0)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	DividerStyle = lipgloss.NewStyle().
			Foreground(Surface2).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Surface0)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Red)

	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve).
			Align(lipgloss.Center)
)

type StatusType int

const (
	StatusWaiting StatusType = iota
	StatusOpen
	StatusStopped
	StatusError
)

func GetStatusStyle(status StatusType) lipgloss.Style {
	switch status {
	case StatusOpen:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case StatusWaiting:
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	case StatusStopped:
		return lipgloss.NewStyle().Foreground(Subtext1).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	}
}
