/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allbin/go-rawserial"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display what is known about a serial port and, with --open, whether it
can be opened with the current line settings.

For USB devices the vendor/product IDs, serial number and interface are
read from sysfs. On macOS the matching dial-in (tty.*) or callout (cu.*)
device is shown as well.

Example usage:
  rawserial info /dev/ttyUSB0
  rawserial info /dev/ttyACM0 --open --baud 9600
  rawserial info /dev/cu.usbserial-1410`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		checkOpen, _ := cmd.Flags().GetBool("open")
		if err := runInfo(args[0], checkOpen); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolP("open", "o", false, "Check that the port can be opened with the current line settings")
}

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)

// field prints one aligned "label: value" line, skipping empty values
func field(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-13s", label+":")), value)
}

// pairedDevice returns the other half of a macOS tty.*/cu.* pair
func pairedDevice(portPath string) (string, string) {
	dir, name := filepath.Split(portPath)
	switch {
	case strings.HasPrefix(name, "cu."):
		return "Dial-in", dir + "tty." + strings.TrimPrefix(name, "cu.")
	case strings.HasPrefix(name, "tty."):
		return "Callout", dir + "cu." + strings.TrimPrefix(name, "tty.")
	}
	return "", ""
}

// openStatus describes the outcome of trying to open the port
func openStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, serial.ErrDeviceInUse):
		return "in use by another process"
	case errors.Is(err, serial.ErrPermissionDenied):
		return "permission denied (check the dialout/uucp group)"
	case errors.Is(err, serial.ErrInvalidBaudRate):
		return "unsupported baud rate"
	default:
		return err.Error()
	}
}

func runInfo(portPath string, checkOpen bool) error {
	info, err := serial.GetPortInfo(portPath)
	if errors.Is(err, serial.ErrDeviceNotFound) {
		return fmt.Errorf("%s is not a serial device (see 'rawserial list')", portPath)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Port Information: %s\n\n", info.Path)
	field("Name", info.Name)
	field("Description", info.Description)
	field("Type", getPortType(info.Name))
	if label, other := pairedDevice(info.Path); other != "" {
		if _, err := os.Stat(other); err == nil {
			field(label, other)
		}
	}

	if info.IsUSB() {
		fmt.Println("\nUSB Device Information:")
		field("Vendor ID", info.VendorID)
		field("Product ID", info.ProductID)
		field("Serial", info.SerialNumber)
		field("Interface", info.InterfaceNumber)
		field("Bus", info.BusNumber)
		field("Device", info.DeviceNumber)
		field("Manufacturer", info.Manufacturer)
		field("Product", info.Product)
	}

	if checkOpen {
		fmt.Println()
		port, settings, err := openPort(portPath)
		if err == nil {
			err = port.Close()
		}
		field("Open", fmt.Sprintf("%s (%d baud)", openStatus(err), settings.BaudRate))
	}
	return nil
}
