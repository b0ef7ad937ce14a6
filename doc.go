// Package serial provides a minimal, non-blocking handle for raw serial port
// communication on POSIX systems (Linux and macOS).
//
// A Port owns one device descriptor and the terminal configuration the device
// had before it was opened. Every call maps directly onto one OS primitive and
// returns immediately: the line is configured with VMIN=0/VTIME=0 and
// readiness is checked with a zero-timeout poll. There is no framing,
// buffering or retry layer; the caller owns the polling loop.
//
// # Basic Usage
//
//	var port serial.Port
//	if err := port.Open("/dev/ttyUSB0", 115200, false); err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	if port.Writable() {
//	    n, err := port.Write([]byte("AT\r"))
//	    // n may be less than requested; write the remainder later
//	}
//
//	buf := make([]byte, 256)
//	for !port.Readable() {
//	    time.Sleep(time.Millisecond)
//	}
//	n, err := port.Read(buf)
//
// # Device State
//
// Open requests exclusive access (TIOCEXCL), switches the line to raw 8N1 and
// enables RTS/CTS flow control on request. Close drains pending output and
// puts back the configuration that was read at Open before releasing the
// descriptor. Close is idempotent; a Port that is dropped without Close is
// released by a runtime cleanup, but relying on that delays the restore until
// the garbage collector runs.
//
// Opening an open Port closes the previous session first. A failed Open
// always leaves the Port closed with no descriptor held.
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID)
//	}
//
// # Error Handling
//
// Open failures wrap the underlying errno and, where one applies, a sentinel:
//
//	var (
//	    ErrDeviceNotFound   // no such device node
//	    ErrPermissionDenied // EACCES / EPERM
//	    ErrDeviceInUse      // device held exclusively elsewhere
//	    ErrInvalidBaudRate  // rate not supported by the platform
//	    ErrPortClosed       // I/O on a closed Port
//	)
//
// Use errors.Is() for error type checking:
//
//	if errors.Is(err, serial.ErrDeviceInUse) {
//	    // another process holds the line
//	}
//
// # Concurrency
//
// A Port is not safe for concurrent use. Serialize access to a single Port or
// use one Port per device.
package serial
