/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-serial-bridge/internal/bridge"
	"github.com/allbin/go-serial-bridge/internal/config"
	"github.com/allbin/go-serial-bridge/internal/transport"
	"github.com/allbin/go-serial-bridge/internal/tui/components"
	"github.com/allbin/go-serial-bridge/internal/tui/keys"
	"github.com/allbin/go-serial-bridge/internal/tui/models"
	"github.com/allbin/go-serial-bridge/internal/tui/styles"
	"github.com/allbin/go-serial-bridge/internal/util"
)

const logPanelRows = 3

// monitorModel represents the Bubble Tea model for run --tui
type monitorModel struct {
	*models.MonitorModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	logPanel  *components.LogPanel
	help      help.Model
	keys      keys.MonitorKeys
}

func newMonitorModel(worker string) *monitorModel {
	m := &monitorModel{
		MonitorModel: models.NewMonitorModel(),
		terminal:     components.NewTerminal(0, 0), // Will be properly sized by WindowSizeMsg
		statusBar:    components.NewStatusBar("mbbridge", transport.NewPortConfig("").LineSettings()),
		logPanel:     components.NewLogPanel(logPanelRows),
		help:         help.New(),
		keys:         keys.NewMonitorKeys(),
	}
	m.statusBar.SetWorker(worker)
	return m
}

// logSink turns log output into LogLineMsgs while the monitor owns the terminal
type logSink struct {
	mu  sync.Mutex
	p   *tea.Program
	buf bytes.Buffer
}

func (s *logSink) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Write(data)
	for {
		line, err := s.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write
			s.buf.Reset()
			s.buf.WriteString(line)
			break
		}
		s.p.Send(components.LogLineMsg(line))
	}
	return len(data), nil
}

// runMonitor runs the bridge behind a full screen monitor. The monitor
// stays up after the bridge stops until the user quits.
func runMonitor(ctx context.Context, cfg *config.Config, programArgs []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerName := cfg.Worker.Command
	if cfg.Worker.Mode == config.ModeWebSocket {
		workerName = cfg.Worker.Listen
	}

	m := newMonitorModel(workerName)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	sink := &logSink{p: p}
	util.SetOutput(sink)
	defer util.SetOutput(os.Stderr)

	var bridgeErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		bridgeErr = runBridge(ctx, cfg, programArgs, bridgeIO{
			output:  io.Discard,
			console: io.Discard,
			stderr:  sink,
			observer: func(a bridge.Activity) {
				p.Send(components.ActivityMsg(a))
			},
		})
		p.Send(models.BridgeDoneMsg{Err: bridgeErr})
	}()

	_, err := p.Run()
	cancel()
	<-done

	if err != nil && ctx.Err() == nil {
		return err
	}
	return bridgeErr
}

func (m *monitorModel) Init() tea.Cmd {
	return nil
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Status bar is single line
		statusBarHeight := 1
		verticalMarginHeight := m.logPanel.Height() + statusBarHeight + 1 // content border

		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.logPanel.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.SetReady(true)

	case components.ActivityMsg:
		if m.Record(msg) {
			m.statusBar.SetPortOpened(m.PortPath())
		}
		m.terminal.AddMessage(msg)

	case components.LogLineMsg:
		m.logPanel.Add(string(msg))

	case models.BridgeDoneMsg:
		m.Stop(msg.Err)
		m.statusBar.SetStopped(msg.Err)
		if msg.Err != nil {
			m.logPanel.Add(styles.ErrorStyle.Render(fmt.Sprintf("Bridge stopped: %v", msg.Err)))
		} else {
			m.logPanel.Add(styles.InfoStyle.Render("Bridge stopped, press q to quit"))
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Clear):
			m.ClearEntries()
			m.terminal.Clear()

		case key.Matches(msg, m.keys.ToggleHex):
			m.terminal.ToggleHex()
			m.terminal.RefreshDisplayWithRawData(m.Entries())

		case key.Matches(msg, m.keys.ToggleASCII):
			m.terminal.ToggleASCII()
			m.terminal.RefreshDisplayWithRawData(m.Entries())

		case key.Matches(msg, m.keys.Up):
			m.terminal.ScrollUp()

		case key.Matches(msg, m.keys.Down):
			m.terminal.ScrollDown()

		case key.Matches(msg, m.keys.GotoTop):
			m.terminal.GotoTop()

		case key.Matches(msg, m.keys.GotoBottom):
			m.terminal.GotoBottom()
		}
	}

	// Update terminal viewport for window resize messages
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		_, cmd := m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *monitorModel) View() string {
	var content string
	if m.IsReady() {
		content = m.terminal.View()
	} else {
		content = "Initializing..."
	}

	if m.help.ShowAll {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.help.View(m.keys))
	}

	timestamp := time.Now().Format("15:04:05")
	statusBar := m.statusBar.Render(m.Counters(), timestamp)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ContentBorderStyle.Render(content),
		m.logPanel.View(),
		statusBar,
	)
}
