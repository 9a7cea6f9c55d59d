package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-bridge/internal/bridge"
	"github.com/allbin/go-serial-bridge/internal/tui/styles"
)

// ActivityMsg carries one bridge activity into the UI
type ActivityMsg bridge.Activity

// LogLineMsg carries one log line written while the UI owns the terminal
type LogLineMsg string

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) SetDisplayMode(showHex, showASCII bool) {
	df.mode.ShowHex = showHex
	df.mode.ShowASCII = showASCII
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

type indicator struct {
	label string
	color lipgloss.Color
}

var indicators = map[bridge.ActivityKind]indicator{
	bridge.ActivityText:       {"↙ RX", styles.Sky},
	bridge.ActivityCommand:    {"⚑ CMD", styles.Peach},
	bridge.ActivityWrite:      {"↗ TX", styles.Green},
	bridge.ActivityFileLoaded: {"▤ FILE", styles.Blue},
	bridge.ActivityPortOpened: {"● OPEN", styles.Green},
	bridge.ActivityConsole:    {"✎ LOG", styles.Mauve},
	bridge.ActivityStdout:     {"» OUT", styles.Teal},
	bridge.ActivityError:      {"✗ ERR", styles.Red},
}

func (df *DataFormatter) FormatMessage(msg ActivityMsg) string {
	timestamp := styles.TimestampStyle.Render(fmt.Sprintf("[%s]", msg.Time.Format("15:04:05.000")))

	ind, ok := indicators[msg.Kind]
	if !ok {
		ind = indicator{"?", styles.Subtext1}
	}
	label := lipgloss.NewStyle().
		Foreground(ind.color).
		Bold(true).
		Render(ind.label)

	return fmt.Sprintf("%s %s: %s", timestamp, label, df.body(msg))
}

func (df *DataFormatter) body(msg ActivityMsg) string {
	switch msg.Kind {
	case bridge.ActivityText, bridge.ActivityWrite:
		return df.formatBytes(msg.Data)
	case bridge.ActivityCommand:
		if len(msg.Data) == 1 {
			return fmt.Sprintf("0x%02X", msg.Data[0])
		}
		return df.formatBytes(msg.Data)
	case bridge.ActivityFileLoaded:
		return fmt.Sprintf("%s (%d bytes)", msg.Text, len(msg.Data))
	case bridge.ActivityError:
		if msg.Text != "" {
			return fmt.Sprintf("%s: %v", msg.Text, msg.Err)
		}
		return fmt.Sprint(msg.Err)
	default:
		return printable([]byte(msg.Text))
	}
}

func (df *DataFormatter) formatBytes(data []byte) string {
	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("ASCII: %s", printable(data)))
	}

	// If both are disabled, show raw bytes count
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}
	return strings.Join(parts, "  ")
}

// printable replaces anything outside printable ASCII with dots so no
// terminal control sequences reach the viewport
func printable(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func (df *DataFormatter) FormatMessages(messages []ActivityMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}
