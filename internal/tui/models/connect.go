package models

import (
	"errors"
	"time"

	"github.com/allbin/go-rawserial/internal/tui/components"
	"github.com/allbin/go-rawserial/internal/tui/keys"
	"github.com/allbin/go-rawserial/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// Conn is the non-blocking port API the model polls. *serial.Port
// satisfies it.
type Conn interface {
	Readable() bool
	Read(buf []byte) (int, error)
	Writable() bool
	Write(buf []byte) (int, error)
	Close() error
}

// ErrHangup is reported once the port signals readable but has no data,
// which is how a hung-up line looks through the non-blocking API.
var ErrHangup = errors.New("device hung up")

type Config struct {
	PortPath     string
	BaudRate     int
	FlowControl  bool
	PollInterval time.Duration
}

const (
	defaultPollInterval = 10 * time.Millisecond
	readBufferSize      = 1024
	maxReadsPerPoll     = 16

	inputHeight     = 3 // rounded border
	statusBarHeight = 1
	borderHeight    = 1 // content top border
)

type pollMsg time.Time

// txJob is queued output and the message it is displayed as
type txJob struct {
	msg  *components.DataMsg
	done int
}

// ConnectModel is an interactive terminal on one open port. All port access
// happens from Update, driven by a poll tick, so the port is never used
// from more than one goroutine.
type ConnectModel struct {
	conn Conn
	cfg  Config
	now  func() time.Time

	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConnectKeys

	mode     InputMode
	messages []*components.DataMsg
	queue    []*txJob
	buf      []byte

	width, height int
	ready         bool
	stopped       bool // polling has ended after an error, a hang-up or quit
	hungUp        bool
	rxBytes       int
	txBytes       int
}

func NewConnectModel(conn Conn, cfg Config) *ConnectModel {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &ConnectModel{
		conn:     conn,
		cfg:      cfg,
		now:      time.Now,
		terminal: components.NewTerminal(0, 0),
		statusBar: components.NewStatusBar(cfg.PortPath, components.ConnectionInfo{
			BaudRate:    cfg.BaudRate,
			FlowControl: cfg.FlowControl,
		}),
		input: components.NewInput(),
		help:  help.New(),
		keys:  keys.NewConnectKeys(),
		buf:   make([]byte, readBufferSize),
	}
}

// Err returns the port error or hang-up that stopped polling, if any
func (m *ConnectModel) Err() error {
	if err := m.statusBar.Err(); err != nil {
		return err
	}
	if m.hungUp {
		return ErrHangup
	}
	return nil
}

func (m *ConnectModel) Messages() []*components.DataMsg {
	return m.messages
}

func (m *ConnectModel) Mode() InputMode {
	return m.mode
}

func (m *ConnectModel) Init() tea.Cmd {
	return m.tick()
}

func (m *ConnectModel) tick() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (m *ConnectModel) add(msg *components.DataMsg) {
	m.messages = append(m.messages, msg)
	m.terminal.AddMessage(*msg)
}

func (m *ConnectModel) fail(err error) {
	m.statusBar.SetError(err)
	m.stopped = true
	m.add(&components.DataMsg{
		Timestamp: m.now(),
		Direction: components.RX,
		Note:      styles.ErrorStyle.Render("port error: " + err.Error()),
	})
}

func (m *ConnectModel) hangup() {
	m.statusBar.SetDisconnected()
	m.stopped = true
	m.hungUp = true
	for _, job := range m.queue {
		job.msg.Status = components.TXError
	}
	if len(m.queue) > 0 {
		m.terminal.SetMessages(m.messages)
	}
	m.queue = nil
	m.add(&components.DataMsg{
		Timestamp: m.now(),
		Direction: components.RX,
		Note:      styles.HintStyle.Render("disconnected: " + ErrHangup.Error()),
	})
}

// poll moves queued output to the port and pending input to the display
func (m *ConnectModel) poll() {
	if m.stopped {
		return
	}
	if !m.flush() {
		return
	}

	for i := 0; i < maxReadsPerPoll && m.conn.Readable(); i++ {
		n, err := m.conn.Read(m.buf)
		if err != nil {
			m.fail(err)
			return
		}
		if n == 0 {
			if i == 0 {
				m.hangup()
			}
			break
		}
		m.rxBytes += n
		m.add(&components.DataMsg{
			Timestamp: m.now(),
			Data:      append([]byte(nil), m.buf[:n]...),
			Direction: components.RX,
		})
	}
	m.statusBar.SetCounters(m.rxBytes, m.txBytes)
}

// flush writes as much queued output as the port accepts. It returns false
// if a write failed.
func (m *ConnectModel) flush() bool {
	changed := false
	defer func() {
		if changed {
			m.terminal.SetMessages(m.messages)
		}
		m.statusBar.SetCounters(m.rxBytes, m.txBytes)
	}()

	for len(m.queue) > 0 && m.conn.Writable() {
		job := m.queue[0]
		n, err := m.conn.Write(job.msg.Data[job.done:])
		if err != nil {
			job.msg.Status = components.TXError
			m.queue = nil
			changed = true
			m.fail(err)
			return false
		}
		if n == 0 {
			break
		}

		job.done += n
		m.txBytes += n
		changed = true
		if job.done < len(job.msg.Data) {
			job.msg.Status = components.TXPartial
			continue
		}
		job.msg.Status = components.TXWritten
		m.queue = m.queue[1:]
	}
	return true
}

func (m *ConnectModel) send() {
	value := m.input.Value()
	if value == "" {
		return
	}

	payload, err := m.input.Payload()
	if err != nil {
		m.add(&components.DataMsg{
			Timestamp: m.now(),
			Direction: components.TX,
			Status:    components.TXError,
			Note:      "Invalid hex input: " + err.Error(),
		})
		return
	}

	m.input.AddToHistory(value)
	m.input.SetValue("")
	if m.stopped {
		return
	}

	msg := &components.DataMsg{
		Timestamp: m.now(),
		Data:      payload,
		Direction: components.TX,
		Status:    components.TXPending,
	}
	m.add(msg)
	m.queue = append(m.queue, &txJob{msg: msg})
	m.flush()
}

func (m *ConnectModel) layout() {
	helpHeight := lipgloss.Height(m.help.View(m.keys))
	m.terminal.SetSize(m.width, m.height-inputHeight-statusBarHeight-borderHeight-helpHeight)
	m.input.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width
}

func (m *ConnectModel) quit() tea.Cmd {
	m.stopped = true
	m.conn.Close()
	return tea.Quit
}

func (m *ConnectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case pollMsg:
		m.poll()
		if m.stopped {
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg:
		if m.mode == InputModeInsert {
			return m, m.updateInsert(msg)
		}
		return m, m.updateNormal(msg)
	}

	return m, nil
}

func (m *ConnectModel) updateInsert(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m.quit()
	case key.Matches(msg, m.keys.Escape):
		m.mode = InputModeNormal
		m.input.Blur()
	case key.Matches(msg, m.keys.Enter):
		m.send()
	case key.Matches(msg, m.keys.HistoryUp):
		m.input.HistoryUp()
	case key.Matches(msg, m.keys.HistoryDown):
		m.input.HistoryDown()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	default:
		return m.input.Update(msg)
	}
	return nil
}

func (m *ConnectModel) updateNormal(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.InsertMode):
		m.mode = InputModeInsert
		return m.input.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.messages = nil
		m.terminal.Clear()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.ToggleHex):
		m.terminal.Formatter().ToggleHex()
		m.terminal.SetMessages(m.messages)
	case key.Matches(msg, m.keys.ToggleASCII):
		m.terminal.Formatter().ToggleASCII()
		m.terminal.SetMessages(m.messages)
	case key.Matches(msg, m.keys.ScrollUp):
		m.terminal.ScrollUp(1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.terminal.ScrollDown(1)
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	}
	return nil
}

func (m *ConnectModel) View() string {
	content := "Initializing..."
	if m.ready {
		content = m.terminal.View()
	}

	insert := m.mode == InputModeInsert
	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ContentBorderStyle.Render(content),
		m.input.View(insert),
		m.statusBar.View(insert, m.input.SendingMode(), m.now().Format("15:04:05")),
		m.help.View(m.keys),
	)
}
