/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/allbin/go-rawserial/internal/tui/components"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// loopbackCmd represents the loopback command
var loopbackCmd = &cobra.Command{
	Use:   "loopback <port>",
	Short: "Self-test a port through a loopback plug",
	Long: `Write a test pattern and read it back, for ports with TX wired to RX
(a loopback plug or a null-modem cable to a second port that echoes).

Each round writes the pattern, waits until the same number of bytes has been
read back, compares them and reports the round-trip time. The command exits
with status 1 if any round fails.

Example usage:
  rawserial loopback /dev/ttyUSB0
  rawserial loopback /dev/ttyUSB0 --pattern "de ad be ef" --count 10
  rawserial loopback /dev/ttyUSB0 --rtscts --timeout 500ms`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		patternHex, _ := cmd.Flags().GetString("pattern")
		count, _ := cmd.Flags().GetInt("count")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		pattern, err := components.ParseHex(patternHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid pattern: %v\n", err)
			os.Exit(1)
		}

		failures, err := runLoopback(portPath, pattern, count, timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if failures > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(loopbackCmd)

	loopbackCmd.Flags().StringP("pattern", "p", "55 AA 00 FF 0D 0A", "Test pattern as hex bytes")
	loopbackCmd.Flags().IntP("count", "n", 3, "Number of rounds")
	loopbackCmd.Flags().DurationP("timeout", "t", time.Second, "Timeout per round")
}

// roundTrip writes pattern and reads the same number of bytes back
func roundTrip(ctx context.Context, c pollConn, pattern []byte, interval time.Duration) ([]byte, error) {
	if _, err := writeAll(ctx, c, pattern, interval); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	got := make([]byte, len(pattern))
	n, err := readFull(ctx, c, got, interval)
	if err != nil {
		return got[:n], fmt.Errorf("read back %d of %d bytes: %w", n, len(pattern), err)
	}
	return got, nil
}

func runLoopback(portPath string, pattern []byte, count int, timeout time.Duration) (int, error) {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true)
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	port, settings, err := openPort(portPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open port: %w", err)
	}
	defer port.Close()

	fmt.Printf("Loopback test on %s at %d baud, pattern % X\n\n", portPath, settings.BaudRate, pattern)

	failures := 0
	var total time.Duration
	for i := 1; i <= count; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		start := time.Now()
		got, err := roundTrip(ctx, port, pattern, pollInterval())
		elapsed := time.Since(start)
		cancel()

		switch {
		case err != nil:
			failures++
			fmt.Printf("%s round %d: %v\n", failStyle.Render("✗"), i, err)
		case !bytes.Equal(got, pattern):
			failures++
			fmt.Printf("%s round %d: got % X\n", failStyle.Render("✗"), i, got)
		default:
			total += elapsed
			fmt.Printf("%s round %d %s\n", okStyle.Render("✓"), i, dimStyle.Render(elapsed.Round(time.Microsecond).String()))
		}
	}

	passed := count - failures
	fmt.Printf("\n%d/%d rounds passed", passed, count)
	if passed > 0 {
		fmt.Printf(", average round trip %v", (total / time.Duration(passed)).Round(time.Microsecond))
	}
	fmt.Println()

	return failures, nil
}
