/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-rawserial/internal/tui/components"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | rawserial send /dev/ttyUSB0
- Interactive mode: rawserial send /dev/ttyUSB0 (prompts for input)

The port is polled for writability and partial writes are retried until all
data has been accepted or the timeout expires. Output is drained before the
port is closed.

Example usage:
  rawserial send "Hello World" /dev/ttyUSB0
  rawserial send "AT+GMR" /dev/ttyUSB0 --newline
  rawserial send "48 65 6c 6c 6f" /dev/ttyUSB0 --hex --baud 9600
  echo "test" | rawserial send /dev/ttyUSB0`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var portPath string

		// Parse arguments: either "send data port" or "send port"
		if len(args) == 1 {
			portPath = args[0]
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			data = args[0]
			portPath = args[1]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		payload := []byte(data)
		if hexMode {
			var err error
			payload, err = components.ParseHex(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
		}
		if addNewline && !hexMode {
			payload = append(payload, '\n')
		}

		if err := sendData(portPath, payload, timeout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Give up if the data is not accepted within this time")
}

func promptForData() string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendData(portPath string, data []byte, timeout time.Duration) error {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), portPath)

	port, settings, err := openPort(portPath)
	if err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	defer port.Close()

	fmt.Printf("%s Connected at %d baud\n", successStyle.Render("✓"), settings.BaudRate)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	n, err := writeAll(ctx, port, data, pollInterval())
	if err != nil {
		return fmt.Errorf("%s sent %d of %d bytes: %v", errorStyle.Render("✗"), n, len(data), err)
	}
	if err := port.Drain(); err != nil {
		return fmt.Errorf("%s drain: %v", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), n)
	fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), preview(data, 50))

	return nil
}

// preview returns up to limit bytes of data with non-printable bytes replaced
func preview(data []byte, limit int) string {
	suffix := ""
	if len(data) > limit {
		data = data[:limit]
		suffix = "..."
	}
	var b strings.Builder
	for _, c := range data {
		if c < 32 || c > 126 {
			b.WriteRune('·')
			continue
		}
		b.WriteByte(c)
	}
	return b.String() + suffix
}
