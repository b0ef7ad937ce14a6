/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/go-rawserial"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

This command scans for communication-capable serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- macOS callout devices (cu.*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		filteredPorts := filterPorts(ports, filterType)

		if len(filteredPorts) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(filteredPorts)
		} else {
			renderSimple(filteredPorts)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			continue
		}

		name := strings.ToLower(info.Name)
		switch strings.ToLower(filterType) {
		case "usb":
			if info.IsUSB() || strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm") {
				filtered = append(filtered, port)
			}
		case "standard":
			if strings.HasPrefix(name, "ttys") {
				filtered = append(filtered, port)
			}
		case "arm":
			if strings.HasPrefix(name, "ttyama") {
				filtered = append(filtered, port)
			}
		}
	}
	return filtered
}

const (
	columnKeyPort = "port"
	columnKeyType = "type"
	columnKeyDesc = "desc"
	columnKeyUSB  = "usb"
)

// renderTable renders the port list as a static table
func renderTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))
	fmt.Println(portTable(ports).View())
}

func portTable(ports []string) table.Model {
	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 16),
		table.NewColumn(columnKeyType, "Type", 16),
		table.NewColumn(columnKeyDesc, "Description", 24),
		table.NewColumn(columnKeyUSB, "VID:PID", 11),
	}

	rows := make([]table.Row, 0, len(ports))
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			rows = append(rows, table.NewRow(table.RowData{
				columnKeyPort: port,
				columnKeyType: "Unknown",
				columnKeyDesc: fmt.Sprintf("Error: %v", err),
				columnKeyUSB:  "",
			}))
			continue
		}

		usb := ""
		if info.IsUSB() {
			usb = info.VendorID + ":" + info.ProductID
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyPort: info.Name,
			columnKeyType: getPortType(info.Name),
			columnKeyDesc: info.Description,
			columnKeyUSB:  usb,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))).
		WithBaseStyle(lipgloss.NewStyle().BorderForeground(lipgloss.Color("240")).Align(lipgloss.Left))
}

// renderSimple renders the port list in simple text format
func renderSimple(ports []string) {
	for _, port := range ports {
		fmt.Println(port)
	}
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttysac"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyths"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyo"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	case strings.HasPrefix(name, "cu."):
		return "Callout"
	default:
		return "Serial Port"
	}
}
