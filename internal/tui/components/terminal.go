package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
)

// Terminal is a scrolling view of formatted traffic. It follows the newest
// line unless the user has scrolled up.
type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	lines     []string
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(true, true),
	}
}

func (t *Terminal) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	t.viewport.Width = width
	t.viewport.Height = height
	t.viewport.GotoBottom()
}

func (t *Terminal) Formatter() *DataFormatter {
	return t.formatter
}

// Lines returns the formatted lines currently held
func (t *Terminal) Lines() []string {
	return t.lines
}

func (t *Terminal) AddMessage(msg DataMsg) {
	follow := t.viewport.AtBottom()
	t.lines = append(t.lines, t.formatter.FormatMessage(msg))
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	if follow {
		t.viewport.GotoBottom()
	}
}

// SetMessages re-renders everything, e.g. after a display mode change or a
// TX status update
func (t *Terminal) SetMessages(messages []*DataMsg) {
	follow := t.viewport.AtBottom()
	t.lines = t.formatter.FormatMessages(messages)
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	if follow {
		t.viewport.GotoBottom()
	}
}

func (t *Terminal) Clear() {
	t.lines = nil
	t.viewport.SetContent("")
	t.viewport.GotoTop()
}

func (t *Terminal) ScrollUp(n int) {
	t.viewport.LineUp(n)
}

func (t *Terminal) ScrollDown(n int) {
	t.viewport.LineDown(n)
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
