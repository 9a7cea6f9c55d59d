package models

import (
	"strings"

	"github.com/allbin/go-serial-bridge/internal/bridge"
	"github.com/allbin/go-serial-bridge/internal/tui/components"
)

// MaxEntries bounds the activity history kept for redraws
const MaxEntries = 5000

// BridgeDoneMsg reports that the bridge controller returned
type BridgeDoneMsg struct {
	Err error
}

// MonitorModel holds the state behind the bridge monitor. It is only
// touched from the bubbletea update loop.
type MonitorModel struct {
	entries  []components.ActivityMsg
	counters components.Counters

	portPath string
	portOpen bool
	stopped  bool
	err      error
	ready    bool
}

func NewMonitorModel() *MonitorModel {
	return &MonitorModel{
		entries: make([]components.ActivityMsg, 0),
	}
}

// Record stores an activity and updates the counters. It reports whether
// the activity opened a port.
func (m *MonitorModel) Record(msg components.ActivityMsg) bool {
	m.entries = append(m.entries, msg)
	if len(m.entries) > MaxEntries {
		m.entries = m.entries[len(m.entries)-MaxEntries:]
	}

	switch msg.Kind {
	case bridge.ActivityText:
		m.counters.RXBytes += len(msg.Data)
	case bridge.ActivityCommand:
		m.counters.Commands++
	case bridge.ActivityWrite:
		m.counters.TXBytes += len(msg.Data)
	case bridge.ActivityFileLoaded:
		m.counters.Files++
	case bridge.ActivityError:
		m.counters.Errors++
	case bridge.ActivityPortOpened:
		path, _, _ := strings.Cut(msg.Text, " @ ")
		m.portPath = path
		m.portOpen = true
		return true
	}
	return false
}

func (m *MonitorModel) Entries() []components.ActivityMsg {
	return m.entries
}

func (m *MonitorModel) ClearEntries() {
	m.entries = make([]components.ActivityMsg, 0)
}

func (m *MonitorModel) Counters() components.Counters {
	return m.counters
}

func (m *MonitorModel) PortPath() string {
	return m.portPath
}

func (m *MonitorModel) IsPortOpen() bool {
	return m.portOpen
}

// Stop records that the bridge has finished, with err if it failed
func (m *MonitorModel) Stop(err error) {
	m.stopped = true
	m.portOpen = false
	m.err = err
}

func (m *MonitorModel) IsStopped() bool {
	return m.stopped
}

func (m *MonitorModel) GetError() error {
	return m.err
}

func (m *MonitorModel) IsReady() bool {
	return m.ready
}

func (m *MonitorModel) SetReady(ready bool) {
	m.ready = ready
}
