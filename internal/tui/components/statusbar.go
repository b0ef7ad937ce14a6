package components

import (
	"fmt"

	"github.com/allbin/go-rawserial/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is the line configuration shown in the status bar
type ConnectionInfo struct {
	BaudRate    int
	FlowControl bool
}

func (c ConnectionInfo) String() string {
	flow := "none"
	if c.FlowControl {
		flow = "RTS/CTS"
	}
	return fmt.Sprintf("⚡ %d 8N1 %s", c.BaudRate, flow)
}

type StatusBar struct {
	portPath string
	info     ConnectionInfo
	status   styles.StatusType
	err      error
	rx, tx   int
	width    int
}

func NewStatusBar(portPath string, info ConnectionInfo) *StatusBar {
	return &StatusBar{
		portPath: portPath,
		info:     info,
		status:   styles.StatusConnected,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetCounters(rx, tx int) {
	sb.rx, sb.tx = rx, tx
}

func (sb *StatusBar) SetError(err error) {
	sb.err = err
	sb.status = styles.StatusError
}

func (sb *StatusBar) SetDisconnected() {
	sb.status = styles.StatusDisconnected
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// View renders mode | port ● [send mode] ... counters | line settings | clock
func (sb *StatusBar) View(insert bool, sendingMode SendingMode, clock string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeText := "NORMAL"
	if insert {
		modeText = "INSERT"
	}
	mode := styles.ModeStyle(insert).Render(modeText)

	port := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	symbol := "●"
	if sb.status != styles.StatusConnected {
		symbol = "✗"
	}
	indicator := lipgloss.NewStyle().Foreground(styles.StatusColor(sb.status)).Render(symbol)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, port, indicator}
	if insert {
		left = append(left, lipgloss.NewStyle().
			Foreground(styles.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	detail := lipgloss.NewStyle().Foreground(styles.Subtext0).Padding(0, 1)
	counters := detail.Render(fmt.Sprintf("RX %d TX %d", sb.rx, sb.tx))
	line := detail.Render(sb.info.String())
	timeView := lipgloss.NewStyle().Foreground(styles.Subtext1).Padding(0, 1).Render(clock)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, counters, divider, line, divider, timeView)

	spacerWidth := max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
