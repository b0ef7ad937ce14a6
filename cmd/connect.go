/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/allbin/go-rawserial/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <port>",
	Short: "Connect to a serial port with bidirectional communication",
	Long: `Connect to a serial port with an interactive terminal interface.

The port is polled on a timer (see --poll-interval) and never blocks the
interface. Features include:
- Received and transmitted data with timestamps
- ASCII and hex display modes
- ASCII or hex input with history
- Transmit status for writes the port has not fully accepted yet

Press 'i' to type, Enter to send, Esc to leave insert mode and 'q' to quit.

Example usage:
  rawserial connect /dev/ttyUSB0
  rawserial connect /dev/ttyUSB0 --baud 9600
  rawserial connect /dev/ttyUSB0 --rtscts --poll-interval 2ms`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConnectTUI(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnectTUI(portPath string) error {
	port, settings, err := openPort(portPath)
	if err != nil {
		return err
	}
	defer port.Close()

	m := models.NewConnectModel(port, models.Config{
		PortPath:     portPath,
		BaudRate:     settings.BaudRate,
		FlowControl:  settings.FlowControl,
		PollInterval: pollInterval(),
	})

	// debug logging would draw over the alt screen
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return m.Err()
}
