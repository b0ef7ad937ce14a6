//go:build linux || darwin

package serial

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Port is a handle to one serial device. The zero value is a closed port.
//
// A Port is not safe for concurrent use; serialize access or use one Port
// per goroutine and device. Every method returns immediately: the device
// is configured with VMIN=0/VTIME=0 and readiness is checked with a
// zero-timeout poll. Close is the exception: it waits for pending output to
// drain, which with RTS/CTS flow control and CTS never asserted can block.
//
// Once the line hangs up, Readable keeps reporting true while Read returns
// 0 bytes.
type Port struct {
	dev     termDevice
	log     logrus.FieldLogger
	sess    *session // nil while closed
	cleanup runtime.Cleanup
}

// session is one open device. It never refers back to its Port so that it
// can still be released after the Port has become unreachable.
type session struct {
	dev   termDevice
	log   logrus.FieldLogger
	fd    int
	path  string
	saved *unix.Termios // configuration found on the device before Open
	excl  bool          // TIOCEXCL is set
	open  bool          // saved has been replaced on the device
}

// New returns a closed Port configured with opts
func New(opts ...Option) *Port {
	p := &Port{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Port) device() termDevice {
	if p.dev == nil {
		p.dev = unixDevice{}
	}
	return p.dev
}

func (p *Port) logger() logrus.FieldLogger {
	if p.log == nil {
		p.log = discardLogger()
	}
	return p.log
}

// Open opens path in raw 8N1 mode at baudRate, with RTS/CTS flow control
// when flowControl is set. An already open port is closed first.
//
// The device is held exclusively (TIOCEXCL) until Close. On any failure the
// port is left closed and no descriptor is kept.
func (p *Port) Open(path string, baudRate int, flowControl bool) error {
	p.Close()

	log := p.logger().WithFields(logrus.Fields{
		"device": path,
		"baud":   baudRate,
		"rtscts": flowControl,
	})

	if _, err := getBaudRate(baudRate); err != nil {
		log.WithError(err).Debug("open rejected")
		return fmt.Errorf("open %s: %w", path, err)
	}

	dev := p.device()
	fd, err := dev.Open(path)
	if err != nil {
		log.WithError(err).WithField("step", "open").Debug("open failed")
		return openError("open", path, err)
	}

	s := &session{dev: dev, log: log, fd: fd, path: path}
	opened := false
	defer func() {
		if !opened {
			s.release()
		}
	}()

	if err := dev.Exclusive(fd); err != nil {
		return s.fail("lock", err)
	}
	s.excl = true
	if err := dev.ClearFlags(fd); err != nil {
		return s.fail("fcntl", err)
	}
	saved, err := dev.GetAttr(fd)
	if err != nil {
		return s.fail("tcgetattr", err)
	}
	s.saved = saved

	attr := *saved
	makeRaw(&attr, flowControl)
	if err := setSpeed(&attr, baudRate); err != nil {
		return s.fail("speed", err)
	}
	if err := dev.SetAttr(fd, &attr); err != nil {
		return s.fail("tcsetattr", err)
	}

	s.open = true
	opened = true
	p.sess = s
	p.cleanup = runtime.AddCleanup(p, releaseSession, s)

	log.Debug("port opened")
	return nil
}

// OpenSettings opens path using s
func (p *Port) OpenSettings(path string, s Settings) error {
	return p.Open(path, s.BaudRate, s.FlowControl)
}

// makeRaw puts attr into raw 8N1 mode with non-blocking reads, the same
// result as cfmakeraw(3) plus explicit frame and flow-control bits.
func makeRaw(attr *unix.Termios, flowControl bool) {
	attr.Lflag &^= unix.ECHO | unix.ECHONL | unix.ISIG | unix.ICANON | unix.IEXTEN
	attr.Iflag &^= unix.BRKINT | unix.PARMRK | unix.INPCK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	attr.Iflag |= unix.IGNBRK | unix.IGNPAR
	attr.Oflag &^= unix.OPOST
	attr.Cflag &^= unix.CSIZE | unix.CSTOPB | unix.PARENB | unix.CLOCAL
	attr.Cflag |= unix.CS8 | unix.CREAD
	if flowControl {
		attr.Cflag |= unix.CRTSCTS
	} else {
		attr.Cflag &^= unix.CRTSCTS
	}

	// read(2) returns at once with whatever is pending
	attr.Cc[unix.VMIN] = 0
	attr.Cc[unix.VTIME] = 0
}

// Close drains pending output, restores the configuration found at Open
// and releases the device. Closing a closed port is a no-op.
//
// The port is closed when Close returns even if an error is reported.
func (p *Port) Close() error {
	s := p.sess
	if s == nil {
		return nil
	}
	p.sess = nil
	p.cleanup.Stop()
	return s.release()
}

// IsOpen reports whether the port holds an open device
func (p *Port) IsOpen() bool {
	return p.sess != nil
}

// Path returns the device path of an open port, or "" when closed
func (p *Port) Path() string {
	if p.sess == nil {
		return ""
	}
	return p.sess.path
}

// Readable reports whether a Read would return data without blocking
func (p *Port) Readable() bool {
	return p.ready(unix.POLLIN)
}

// Writable reports whether a Write would accept data without blocking
func (p *Port) Writable() bool {
	return p.ready(unix.POLLOUT)
}

func (p *Port) ready(events int16) bool {
	if p.sess == nil {
		return false
	}
	ok, err := p.sess.dev.Poll(p.sess.fd, events)
	if err != nil {
		return false
	}
	return ok
}

// Read reads up to len(buf) bytes. It returns 0 and a nil error when no
// data is pending.
func (p *Port) Read(buf []byte) (int, error) {
	if p.sess == nil {
		return 0, ErrPortClosed
	}
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := p.sess.dev.Read(p.sess.fd, buf)
	if err != nil {
		if retryable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", p.sess.path, err)
	}
	return n, nil
}

// Write writes up to len(buf) bytes and returns how many were accepted.
// A short count with a nil error means the caller should retry the rest.
func (p *Port) Write(buf []byte) (int, error) {
	if p.sess == nil {
		return 0, ErrPortClosed
	}
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := p.sess.dev.Write(p.sess.fd, buf)
	if err != nil {
		if retryable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("write %s: %w", p.sess.path, err)
	}
	return n, nil
}

// Drain waits until all output written to the port has been transmitted
func (p *Port) Drain() error {
	if p.sess == nil {
		return ErrPortClosed
	}
	return p.sess.dev.Drain(p.sess.fd)
}

func retryable(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}

func (s *session) fail(step string, err error) error {
	s.log.WithError(err).WithField("step", step).Debug("open failed")
	return openError(step, s.path, err)
}

// release undoes everything Open did, in reverse. It runs at most once.
func (s *session) release() error {
	if s.fd < 0 {
		return nil
	}

	if err := s.dev.Drain(s.fd); err != nil {
		s.log.WithError(err).Debug("drain failed")
	}

	var firstErr error
	if s.open {
		if err := s.dev.SetAttr(s.fd, s.saved); err != nil {
			s.log.WithError(err).Debug("restore failed")
			firstErr = fmt.Errorf("restore %s: %w", s.path, err)
		}
		s.open = false
	}
	if s.excl {
		if err := s.dev.Release(s.fd); err != nil {
			s.log.WithError(err).Debug("unlock failed")
		}
		s.excl = false
	}
	if err := s.dev.Close(s.fd); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close %s: %w", s.path, err)
	}
	s.fd = -1
	s.saved = nil

	s.log.Debug("port closed")
	return firstErr
}

func releaseSession(s *session) {
	s.release()
}
