package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-rawserial/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

type Direction int

const (
	RX Direction = iota
	TX
)

func (d Direction) String() string {
	if d == TX {
		return "TX"
	}
	return "RX"
}

// TXStatus tracks how much of a queued write the port has accepted
type TXStatus int

const (
	TXPending TXStatus = iota
	TXPartial
	TXWritten
	TXError
)

// DataMsg is one chunk of traffic shown in the terminal
type DataMsg struct {
	Timestamp time.Time
	Data      []byte
	Direction Direction
	Status    TXStatus // TX only
	Note      string   // shown instead of data, e.g. for local errors
}

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

func (df *DataFormatter) DisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

func (df *DataFormatter) indicator(msg DataMsg) string {
	if msg.Direction == RX {
		return lipgloss.NewStyle().
			Foreground(styles.Sky).
			Bold(true).
			Render("↙ RX")
	}

	var color lipgloss.Color
	var text string
	switch msg.Status {
	case TXPending:
		color, text = styles.Yellow, "TX ○"
	case TXPartial:
		color, text = styles.Blue, "TX ◐"
	case TXWritten:
		color, text = styles.Green, "TX ✓"
	default:
		color, text = styles.Red, "TX ✗"
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render("↗ " + text)
}

// Body renders the payload part of msg according to the display mode
func (df *DataFormatter) Body(msg DataMsg) string {
	if msg.Note != "" {
		return msg.Note
	}

	var parts []string
	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, "ASCII: "+printable(msg.Data))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}
	return strings.Join(parts, "  ")
}

func (df *DataFormatter) FormatMessage(msg DataMsg) string {
	ts := styles.TimestampStyle.Render("[" + msg.Timestamp.Format("15:04:05.000") + "]")
	return fmt.Sprintf("%s %s: %s", ts, df.indicator(msg), df.Body(msg))
}

func (df *DataFormatter) FormatMessages(messages []*DataMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(*msg)
	}
	return formatted
}

// printable replaces bytes outside printable ASCII with '.' so that no
// control sequence reaches the terminal
func printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
