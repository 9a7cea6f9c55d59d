package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/allbin/go-serial-bridge/internal/bridge"
)

var stamp = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestFormatMessage(t *testing.T) {
	df := NewDataFormatter(true, true)

	tests := []struct {
		name     string
		msg      ActivityMsg
		expected []string
	}{
		{
			name:     "text",
			msg:      ActivityMsg{Time: stamp, Kind: bridge.ActivityText, Data: []byte("Hey\x7f")},
			expected: []string{"[09:26:53.000]", "RX", "HEX: 48 65 79 7F", "ASCII: Hey."},
		},
		{
			name:     "command",
			msg:      ActivityMsg{Time: stamp, Kind: bridge.ActivityCommand, Data: []byte{3}},
			expected: []string{"CMD", "0x03"},
		},
		{
			name:     "write",
			msg:      ActivityMsg{Time: stamp, Kind: bridge.ActivityWrite, Data: []byte{0, 1}},
			expected: []string{"TX", "HEX: 00 01", "ASCII: .."},
		},
		{
			name:     "file",
			msg:      ActivityMsg{Time: stamp, Kind: bridge.ActivityFileLoaded, Data: make([]byte, 4), Text: "rom.gba"},
			expected: []string{"FILE", "rom.gba (4 bytes)"},
		},
		{
			name:     "console",
			msg:      ActivityMsg{Time: stamp, Kind: bridge.ActivityConsole, Text: "handshake\x1b[2J"},
			expected: []string{"LOG", "handshake.[2J"},
		},
		{
			name:     "error",
			msg:      ActivityMsg{Time: stamp, Kind: bridge.ActivityError, Text: "write-serial", Err: errors.New("serial port not open")},
			expected: []string{"ERR", "write-serial: serial port not open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := df.FormatMessage(tt.msg)
			for _, want := range tt.expected {
				if !strings.Contains(got, want) {
					t.Errorf("Expected %q in %q", want, got)
				}
			}
		})
	}
}

func TestDisplayModeToggles(t *testing.T) {
	df := NewDataFormatter(true, true)
	msg := ActivityMsg{Time: stamp, Kind: bridge.ActivityText, Data: []byte("AB")}

	df.ToggleHex()
	if got := df.FormatMessage(msg); strings.Contains(got, "HEX:") || !strings.Contains(got, "ASCII: AB") {
		t.Errorf("Expected ASCII only, got %q", got)
	}

	df.ToggleASCII()
	if got := df.FormatMessage(msg); !strings.Contains(got, "BYTES: 2") {
		t.Errorf("Expected byte count, got %q", got)
	}

	mode := df.GetDisplayMode()
	if mode.ShowHex || mode.ShowASCII {
		t.Errorf("Expected both modes off, got %+v", mode)
	}
}

func TestTerminalFollow(t *testing.T) {
	term := NewTerminal(40, 2)
	for i := 0; i < 5; i++ {
		term.AddFormattedMessage("line")
	}

	if term.Lines() != 5 {
		t.Errorf("Expected 5 lines, got %d", term.Lines())
	}
	if !term.Following() {
		t.Error("Expected terminal to follow new lines")
	}

	term.GotoTop()
	if term.Following() {
		t.Error("Expected follow to stop after scrolling to the top")
	}

	term.GotoBottom()
	if !term.Following() {
		t.Error("Expected follow to resume at the bottom")
	}

	term.Clear()
	if term.Lines() != 0 {
		t.Errorf("Expected empty terminal after Clear, got %d lines", term.Lines())
	}
}

func TestStatusBarRender(t *testing.T) {
	sb := NewStatusBar("mbbridge", "57600 8N1")
	sb.SetWidth(160)
	sb.SetWorker("elm-flash")

	out := sb.Render(Counters{RXBytes: 12, Commands: 3}, "09:26:53")
	for _, want := range []string{"mbbridge", "waiting for open-port", "worker elm-flash", "RX 12", "CMD 3", "57600 8N1", "09:26:53"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in status bar %q", want, out)
		}
	}

	sb.SetPortOpened("/dev/ttyUSB0")
	if out := sb.Render(Counters{}, ""); !strings.Contains(out, "/dev/ttyUSB0") {
		t.Errorf("Expected port path in status bar %q", out)
	}

	sb.SetStopped(errors.New("serial connection lost"))
	if out := sb.Render(Counters{}, ""); !strings.Contains(out, "stopped: serial connection lost") {
		t.Errorf("Expected stop reason in status bar %q", out)
	}
}

func TestLogPanelKeepsLatest(t *testing.T) {
	lp := NewLogPanel(2)
	lp.Add("first\n")
	lp.Add("")
	lp.Add("second")
	lp.Add("third")

	lines := lp.Lines()
	if len(lines) != 2 || lines[0] != "second" || lines[1] != "third" {
		t.Errorf("Expected [second third], got %q", lines)
	}

	view := lp.View()
	if strings.Contains(view, "first") || !strings.Contains(view, "third") {
		t.Errorf("Expected only the latest lines in %q", view)
	}
	if lp.Height() != 3 {
		t.Errorf("Expected height 3, got %d", lp.Height())
	}
}
