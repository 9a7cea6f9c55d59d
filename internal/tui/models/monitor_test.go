package models

import (
	"errors"
	"testing"
	"time"

	"github.com/allbin/go-serial-bridge/internal/bridge"
	"github.com/allbin/go-serial-bridge/internal/tui/components"
)

func activity(kind bridge.ActivityKind, data []byte, text string) components.ActivityMsg {
	return components.ActivityMsg{Time: time.Now(), Kind: kind, Data: data, Text: text}
}

func TestRecordCounters(t *testing.T) {
	m := NewMonitorModel()

	m.Record(activity(bridge.ActivityText, []byte("Hey"), ""))
	m.Record(activity(bridge.ActivityCommand, []byte{3}, ""))
	m.Record(activity(bridge.ActivityCommand, []byte{0}, ""))
	m.Record(activity(bridge.ActivityWrite, []byte{1, 2}, ""))
	m.Record(activity(bridge.ActivityFileLoaded, []byte("rom"), "rom.gba"))
	m.Record(activity(bridge.ActivityError, nil, "write-serial"))
	m.Record(activity(bridge.ActivityConsole, nil, "hello"))

	want := components.Counters{RXBytes: 3, Commands: 2, TXBytes: 2, Files: 1, Errors: 1}
	if got := m.Counters(); got != want {
		t.Errorf("Expected counters %+v, got %+v", want, got)
	}
	if len(m.Entries()) != 7 {
		t.Errorf("Expected 7 entries, got %d", len(m.Entries()))
	}

	m.ClearEntries()
	if len(m.Entries()) != 0 {
		t.Errorf("Expected no entries after clear, got %d", len(m.Entries()))
	}
	if got := m.Counters(); got != want {
		t.Errorf("Expected counters to survive clear, got %+v", got)
	}
}

func TestRecordPortOpened(t *testing.T) {
	m := NewMonitorModel()

	if m.Record(activity(bridge.ActivityText, []byte("x"), "")) {
		t.Error("Expected text activity not to report an open")
	}
	if !m.Record(activity(bridge.ActivityPortOpened, nil, "/dev/ttyUSB0 @ 57600 8N1")) {
		t.Fatal("Expected port opened activity to report an open")
	}
	if m.PortPath() != "/dev/ttyUSB0" {
		t.Errorf("Expected port path /dev/ttyUSB0, got %q", m.PortPath())
	}
	if !m.IsPortOpen() {
		t.Error("Expected port to be open")
	}

	failure := errors.New("serial connection lost")
	m.Stop(failure)
	if m.IsPortOpen() || !m.IsStopped() {
		t.Error("Expected stopped model with closed port")
	}
	if !errors.Is(m.GetError(), failure) {
		t.Errorf("Expected stop error, got %v", m.GetError())
	}
}

func TestRecordBoundsHistory(t *testing.T) {
	m := NewMonitorModel()
	for i := 0; i < MaxEntries+10; i++ {
		m.Record(activity(bridge.ActivityCommand, []byte{byte(i % 6)}, ""))
	}

	if len(m.Entries()) != MaxEntries {
		t.Errorf("Expected %d entries, got %d", MaxEntries, len(m.Entries()))
	}
	if m.Counters().Commands != MaxEntries+10 {
		t.Errorf("Expected counters to include trimmed entries, got %d", m.Counters().Commands)
	}
}
