package components

import (
	"strings"

	"github.com/allbin/go-rawserial/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SendingMode int

const (
	SendingModeASCII SendingMode = iota
	SendingModeHex
)

func (s SendingMode) String() string {
	if s == SendingModeHex {
		return "HEX"
	}
	return "ASCII"
}

const (
	asciiPlaceholder = "Type message and press Enter to send..."
	hexPlaceholder   = "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)..."
	maxHistory       = 100
)

type Input struct {
	textInput    textinput.Model
	sendingMode  SendingMode
	history      []string
	historyIndex int
	currentInput string // input being edited before history navigation began
	width        int
}

func NewInput() *Input {
	ti := textinput.New()
	ti.Placeholder = asciiPlaceholder
	ti.CharLimit = 512
	ti.Prompt = ""

	return &Input{
		textInput:    ti,
		sendingMode:  SendingModeASCII,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	// border(2) + padding(2) + prompt(1) + space(1)
	i.textInput.Width = max(width-6, 20)
}

func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

func (i *Input) SendingMode() SendingMode {
	return i.sendingMode
}

func (i *Input) ToggleSendingMode() {
	if i.sendingMode == SendingModeASCII {
		i.sendingMode = SendingModeHex
		i.textInput.Placeholder = hexPlaceholder
	} else {
		i.sendingMode = SendingModeASCII
		i.textInput.Placeholder = asciiPlaceholder
	}
}

// Payload converts the current value into the bytes to send. ASCII input
// gets a trailing newline.
func (i *Input) Payload() ([]byte, error) {
	if i.sendingMode == SendingModeHex {
		return ParseHex(i.textInput.Value())
	}
	return []byte(i.textInput.Value() + "\n"), nil
}

func (i *Input) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return cmd
}

func (i *Input) View(insert bool) string {
	promptSymbol, promptColor := ">", styles.Green
	if i.sendingMode == SendingModeHex {
		promptSymbol, promptColor = "#", styles.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(promptColor).Bold(true).Render(promptSymbol)

	var content string
	if insert {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", styles.HintStyle.Render("Press 'i' to enter insert mode"))
	}

	// RoundedBorder and Padding(0, 1) take 4 columns
	style := styles.InputStyle.
		Width(max(i.width-4, 10)).
		AlignHorizontal(lipgloss.Left)
	if insert {
		style = style.BorderForeground(styles.Green)
	}
	return style.Render(content)
}

// AddToHistory records command unless it is empty or repeats the last entry
func (i *Input) AddToHistory(command string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}
	if n := len(i.history); n > 0 && i.history[n-1] == command {
		i.resetHistory()
		return
	}

	i.history = append(i.history, command)
	if len(i.history) > maxHistory {
		i.history = i.history[1:]
	}
	i.resetHistory()
}

func (i *Input) resetHistory() {
	i.historyIndex = -1
	i.currentInput = ""
}

func (i *Input) HistoryUp() {
	if len(i.history) == 0 {
		return
	}

	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

func (i *Input) HistoryDown() {
	if i.historyIndex == -1 {
		return
	}

	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.textInput.SetValue(i.currentInput)
	i.resetHistory()
}
