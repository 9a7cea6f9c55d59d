package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-bridge/internal/tui/styles"
)

// LogPanel shows the most recent log lines below the activity view
type LogPanel struct {
	lines []string
	max   int
	width int
}

func NewLogPanel(rows int) *LogPanel {
	if rows < 1 {
		rows = 1
	}
	return &LogPanel{max: rows}
}

func (lp *LogPanel) SetWidth(width int) {
	lp.width = width
}

// Height is the number of rows View renders, border included
func (lp *LogPanel) Height() int {
	return lp.max + 1
}

func (lp *LogPanel) Add(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	lp.lines = append(lp.lines, line)
	if len(lp.lines) > lp.max {
		lp.lines = lp.lines[len(lp.lines)-lp.max:]
	}
}

func (lp *LogPanel) Lines() []string {
	return lp.lines
}

func (lp *LogPanel) View() string {
	rows := make([]string, lp.max)
	copy(rows[lp.max-len(lp.lines):], lp.lines)

	style := styles.ContentBorderStyle
	if lp.width > 0 {
		for i, row := range rows {
			rows[i] = lipgloss.NewStyle().MaxWidth(lp.width).Render(row)
		}
		style = style.Width(lp.width)
	}
	return style.Render(strings.Join(rows, "\n"))
}
