package serial

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}

	for _, port := range ports {
		if !strings.HasPrefix(port, "/dev/") {
			t.Errorf("Port path doesn't start with /dev/: %s", port)
		}
		if !isCharacterDevice(port) {
			t.Errorf("Port is not a character device: %s", port)
		}
	}

	for i := 1; i < len(ports); i++ {
		if ports[i-1] > ports[i] {
			t.Errorf("Ports are not sorted: %s > %s", ports[i-1], ports[i])
		}
	}
}

func TestIsCharacterDevice(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/dev/null", true},
		{"/dev/zero", true},
		{"/tmp", false},
		{"/nonexistent", false},
	}

	for _, test := range tests {
		result := isCharacterDevice(test.path)
		if result != test.expected {
			t.Errorf("isCharacterDevice(%s) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestIsSerialName(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"ttyUSB0", true},
		{"ttyUSB12", true},
		{"ttyACM0", true},
		{"ttyS0", true},
		{"ttyAMA0", true},
		{"ttymxc3", true},
		{"ttyTHS1", true},
		{"cu.usbserial-1410", true},
		{"tty1", false},
		{"tty2", false},
		{"console", false},
		{"ptmx", false},
		{"ptyp0", false},
		{"random", false},
		{"ttyUSB", false},
	}

	for _, tt := range tests {
		if got := isSerialName(tt.name); got != tt.expected {
			t.Errorf("isSerialName(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestGetPortDescription(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"ttyUSB0", "USB Serial Port"},
		{"ttyACM0", "USB CDC/ACM Device"},
		{"ttyS0", "Standard Serial Port"},
		{"ttyAMA0", "ARM Serial Port"},
		{"ttymxc0", "i.MX Serial Port"},
		{"ttyO0", "OMAP Serial Port"},
		{"ttySAC0", "Samsung Serial Port"},
		{"ttyTHS0", "Tegra Serial Port"},
		{"cu.usbmodem1", "Callout Serial Port"},
		{"unknown", "Serial Port"},
	}

	for _, test := range tests {
		result := getPortDescription(test.name)
		if result != test.expected {
			t.Errorf("getPortDescription(%s) = %s, expected %s", test.name, result, test.expected)
		}
	}
}

func TestGetPortInfo(t *testing.T) {
	info, err := GetPortInfo("/dev/null")
	if err != nil {
		t.Fatalf("GetPortInfo failed for /dev/null: %v", err)
	}
	if info.Name != "null" {
		t.Errorf("Expected name 'null', got '%s'", info.Name)
	}
	if info.Path != "/dev/null" {
		t.Errorf("Expected path '/dev/null', got '%s'", info.Path)
	}
	if info.Description == "" {
		t.Error("Description should not be empty")
	}
	if info.IsUSB() {
		t.Error("/dev/null should not carry USB metadata")
	}

	_, err = GetPortInfo("/dev/nonexistent")
	if err != ErrDeviceNotFound {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestReadSysfsFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		content  *string
		expected string
	}{
		{"normal file", ptr("1234\n"), "1234"},
		{"file with spaces", ptr("  test value  \n"), "test value"},
		{"nonexistent file", nil, ""},
		{"empty file", ptr(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name)
			if tt.content != nil {
				if err := os.WriteFile(testFile, []byte(*tt.content), 0644); err != nil {
					t.Fatalf("Setup failed: %v", err)
				}
			}

			if result := readSysfsFile(testFile); result != tt.expected {
				t.Errorf("readSysfsFile() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func ptr(s string) *string { return &s }

// fakeSysfs builds a sysfs tree under a temp dir and points sysfsRoot at it.
// The tty device link targets ttyTarget relative to the USB device dir.
func fakeSysfs(t *testing.T, name, ttyTarget string) {
	t.Helper()

	root := t.TempDir()
	devicePath := filepath.Join(root, "devices", "usb5", "5-2.3.1")
	interfacePath := filepath.Join(devicePath, "5-2.3.1:1.0")
	classTtyPath := filepath.Join(root, "class", "tty", name)

	for _, dir := range []string{interfacePath, classTtyPath, filepath.Join(devicePath, ttyTarget)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	deviceFiles := map[string]string{
		"idVendor":     "0403",
		"idProduct":    "6010",
		"serial":       "FT123456",
		"manufacturer": "FTDI",
		"product":      "FT2232C Dual USB-UART",
		"busnum":       "5",
		"devnum":       "7",
	}
	for filename, content := range deviceFiles {
		if err := os.WriteFile(filepath.Join(devicePath, filename), []byte(content+"\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", filename, err)
		}
	}
	if err := os.WriteFile(filepath.Join(interfacePath, "bInterfaceNumber"), []byte("00\n"), 0644); err != nil {
		t.Fatalf("Failed to write interface number: %v", err)
	}

	if err := os.Symlink(filepath.Join(devicePath, ttyTarget), filepath.Join(classTtyPath, "device")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	old := sysfsRoot
	sysfsRoot = root
	t.Cleanup(func() { sysfsRoot = old })
}

func TestEnrichUSBInfo(t *testing.T) {
	tests := []struct {
		name   string
		tty    string
		target string
	}{
		// ttyUSB: device links to a tty dir below the interface
		{"usb-serial", "ttyUSB0", filepath.Join("5-2.3.1:1.0", "ttyUSB0")},
		// ttyACM: device links to the interface itself
		{"cdc-acm", "ttyACM0", "5-2.3.1:1.0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fakeSysfs(t, tc.tty, tc.target)

			info := &PortInfo{Name: tc.tty, Path: "/dev/" + tc.tty}
			enrichUSBInfo(info)

			fields := []struct {
				name     string
				got      string
				expected string
			}{
				{"VendorID", info.VendorID, "0403"},
				{"ProductID", info.ProductID, "6010"},
				{"SerialNumber", info.SerialNumber, "FT123456"},
				{"InterfaceNumber", info.InterfaceNumber, "00"},
				{"BusNumber", info.BusNumber, "5"},
				{"DeviceNumber", info.DeviceNumber, "7"},
				{"Manufacturer", info.Manufacturer, "FTDI"},
				{"Product", info.Product, "FT2232C Dual USB-UART"},
			}
			for _, f := range fields {
				if f.got != f.expected {
					t.Errorf("%s = %q, expected %q", f.name, f.got, f.expected)
				}
			}
			if !info.IsUSB() {
				t.Error("IsUSB() = false after enrichment")
			}
		})
	}
}

func TestEnrichUSBInfoGracefulFailure(t *testing.T) {
	old := sysfsRoot
	sysfsRoot = t.TempDir()
	defer func() { sysfsRoot = old }()

	info := &PortInfo{Name: "ttyUSB999", Path: "/dev/ttyUSB999"}
	enrichUSBInfo(info)

	if info.VendorID != "" || info.ProductID != "" || info.SerialNumber != "" {
		t.Errorf("USB fields should be empty, got %+v", info)
	}
}

func BenchmarkListPorts(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := ListPorts(); err != nil {
			b.Errorf("ListPorts failed: %v", err)
		}
	}
}
