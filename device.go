//go:build linux || darwin

package serial

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// termDevice is the set of terminal-control primitives the port needs.
// The open/configure/close sequence in port.go is written against it so
// the platform calls can be swapped out.
type termDevice interface {
	Open(path string) (int, error)
	Exclusive(fd int) error
	Release(fd int) error
	ClearFlags(fd int) error
	GetAttr(fd int) (*unix.Termios, error)
	SetAttr(fd int, attr *unix.Termios) error
	Drain(fd int) error
	Poll(fd int, events int16) (bool, error)
	Read(fd int, buf []byte) (int, error)
	Write(fd int, buf []byte) (int, error)
	Close(fd int) error
}

// unixDevice talks to the kernel through golang.org/x/sys/unix
type unixDevice struct{}

var _ termDevice = unixDevice{}

func (unixDevice) Open(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
}

// Exclusive sets TIOCEXCL so further opens of the device fail with EBUSY
func (unixDevice) Exclusive(fd int) error {
	return unix.IoctlSetInt(fd, unix.TIOCEXCL, 0)
}

// Release clears TIOCEXCL. The kernel only drops the flag on the last close
// of the tty, which may never come while other descriptors are open.
func (unixDevice) Release(fd int) error {
	return unix.IoctlSetInt(fd, unix.TIOCNXCL, 0)
}

// ClearFlags drops O_NONBLOCK (and any other status flag) left over from open
func (unixDevice) ClearFlags(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, 0)
	return err
}

func (unixDevice) GetAttr(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, ioctlGetAttr)
}

// SetAttr applies attr immediately (TCSANOW)
func (unixDevice) SetAttr(fd int, attr *unix.Termios) error {
	return unix.IoctlSetTermios(fd, ioctlSetAttr, attr)
}

func (unixDevice) Drain(fd int) error {
	return drain(fd)
}

// Poll reports whether any of events is ready on fd without waiting
func (unixDevice) Poll(fd int, events int16) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		return false, err
	}
	if n < 1 {
		return false, nil
	}
	return fds[0].Revents&(events|unix.POLLERR|unix.POLLHUP) != 0, nil
}

func (unixDevice) Read(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

func (unixDevice) Write(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

func (unixDevice) Close(fd int) error {
	return unix.Close(fd)
}

// openError wraps an errno from an open step, attaching the matching
// sentinel so callers can check either with errors.Is.
func openError(step, path string, err error) error {
	var sentinel error
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV):
		sentinel = ErrDeviceNotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		sentinel = ErrPermissionDenied
	case errors.Is(err, unix.EBUSY):
		sentinel = ErrDeviceInUse
	}
	if sentinel == nil {
		return fmt.Errorf("%s %s: %w", step, path, err)
	}
	return fmt.Errorf("%s %s: %w: %w", step, path, sentinel, err)
}
