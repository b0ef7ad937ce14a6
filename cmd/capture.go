/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Polls the port for incoming data and appends it unmodified to the output
file. Runs until interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  rawserial capture /dev/ttyUSB0 data.log
  rawserial capture /dev/ttyUSB0 output.txt --baud 9600
  rawserial capture /dev/ttyUSB0 capture.log --console
  rawserial capture /dev/ttyUSB0 capture.log --rtscts --poll-interval 2ms -c`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		outputPath := args[1]

		bufferSize, _ := cmd.Flags().GetInt("buffer")
		showConsole, _ := cmd.Flags().GetBool("console")

		if err := runCapture(portPath, outputPath, bufferSize, showConsole); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int("buffer", 4096, "Read buffer size")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

func runCapture(portPath, outputPath string, bufferSize int, showConsole bool) error {
	if bufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", bufferSize)
	}

	port, _, err := openPort(portPath)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer port.Close()

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", portPath, outputPath)
	var echo io.Writer
	if showConsole {
		echo = os.Stdout
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	startTime := time.Now()
	bytesWritten, err := copyAvailable(ctx, port, file, echo, make([]byte, bufferSize), pollInterval())
	if err != nil && !errors.Is(err, errHangup) {
		return err
	}

	duration := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", bytesWritten, duration.Round(time.Millisecond))
	return err
}
