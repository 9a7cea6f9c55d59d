package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	data      []string
	follow    bool
}

func NewTerminal(width, height int) *Terminal {
	vp := viewport.New(width, height)
	return &Terminal{
		viewport:  vp,
		formatter: NewDataFormatter(true, true), // Default: show both hex and ASCII
		data:      make([]string, 0),
		follow:    true,
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

func (t *Terminal) GetViewport() viewport.Model {
	return t.viewport
}

func (t *Terminal) AddMessage(msg ActivityMsg) {
	t.AddFormattedMessage(t.formatter.FormatMessage(msg))
}

func (t *Terminal) AddFormattedMessage(msg string) {
	t.data = append(t.data, msg)
	t.refresh()
}

// RefreshDisplayWithRawData reformats everything, e.g. after a display
// mode toggle
func (t *Terminal) RefreshDisplayWithRawData(rawData []ActivityMsg) {
	t.data = t.formatter.FormatMessages(rawData)
	t.refresh()
}

func (t *Terminal) refresh() {
	t.viewport.SetContent(strings.Join(t.data, "\n"))
	if t.follow {
		t.viewport.GotoBottom()
	}
}

func (t *Terminal) Clear() {
	t.data = make([]string, 0)
	t.viewport.SetContent("")
	t.follow = true
}

func (t *Terminal) Lines() int {
	return len(t.data)
}

// Following reports whether new lines scroll the view to the bottom
func (t *Terminal) Following() bool {
	return t.follow
}

func (t *Terminal) ScrollUp() {
	t.viewport.LineUp(1)
	t.follow = t.viewport.AtBottom()
}

func (t *Terminal) ScrollDown() {
	t.viewport.LineDown(1)
	t.follow = t.viewport.AtBottom()
}

func (t *Terminal) GotoTop() {
	t.viewport.GotoTop()
	t.follow = t.viewport.AtBottom()
}

func (t *Terminal) GotoBottom() {
	t.viewport.GotoBottom()
	t.follow = true
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
}

func (t *Terminal) GetDisplayMode() DisplayMode {
	return t.formatter.GetDisplayMode()
}

func (t *Terminal) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Only pass certain message types to viewport to prevent it from consuming our key bindings
	switch msg.(type) {
	case tea.WindowSizeMsg:
		return t.viewport.Update(msg)
	default:
		return t.viewport, nil
	}
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
