package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-bridge/internal/tui/styles"
)

// Counters summarize bridge traffic for the status bar
type Counters struct {
	RXBytes  int
	Commands int
	TXBytes  int
	Files    int
	Errors   int
}

type StatusBar struct {
	title        string
	portPath     string
	lineSettings string
	worker       string
	status       styles.StatusType
	err          error
	width        int
}

func NewStatusBar(title, lineSettings string) *StatusBar {
	return &StatusBar{
		title:        title,
		lineSettings: lineSettings,
		status:       styles.StatusWaiting,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

// SetWorker names the connected worker, e.g. its command or address
func (sb *StatusBar) SetWorker(worker string) {
	sb.worker = worker
}

func (sb *StatusBar) SetPortOpened(path string) {
	sb.portPath = path
	sb.status = styles.StatusOpen
	sb.err = nil
}

// SetStopped marks the bridge as finished; err is why, if it failed
func (sb *StatusBar) SetStopped(err error) {
	sb.err = err
	if err != nil {
		sb.status = styles.StatusError
	} else {
		sb.status = styles.StatusStopped
	}
}

func (sb *StatusBar) statusText() (indicator, text string) {
	switch sb.status {
	case styles.StatusOpen:
		return "●", sb.portPath
	case styles.StatusStopped:
		return "■", "stopped"
	case styles.StatusError:
		return "✗", fmt.Sprintf("stopped: %v", sb.err)
	default:
		return "○", "waiting for open-port"
	}
}

// Render draws the single line status bar
func (sb *StatusBar) Render(counters Counters, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	title := styles.TitleStyle.Render(sb.title)

	indicator, text := sb.statusText()
	status := styles.GetStatusStyle(sb.status).Padding(0, 1).Render(indicator + " " + text)

	divider := styles.DividerStyle.Render("│")

	leftParts := []string{title, status}
	if sb.worker != "" {
		workerStyle := lipgloss.NewStyle().Foreground(styles.Subtext1).Padding(0, 1)
		leftParts = append(leftParts, divider, workerStyle.Render("worker "+sb.worker))
	}
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, leftParts...)

	counterStyle := lipgloss.NewStyle().Foreground(styles.Subtext0).Padding(0, 1)
	counts := counterStyle.Render(fmt.Sprintf("RX %d  CMD %d  TX %d  FILE %d  ERR %d",
		counters.RXBytes, counters.Commands, counters.TXBytes, counters.Files, counters.Errors))
	settings := counterStyle.Render("⚡ " + sb.lineSettings)
	clock := lipgloss.NewStyle().Foreground(styles.Subtext1).Padding(0, 1).Render(timestamp)

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, counts, divider, settings, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide)
	return styles.StatusBarStyle.Width(terminalWidth).Render(content)
}
