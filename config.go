//go:build linux || darwin

package serial

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Settings holds the line parameters applied when a port is opened.
// The character frame is always 8N1.
type Settings struct {
	BaudRate    int
	FlowControl bool // RTS/CTS hardware flow control
}

// DefaultSettings returns 115200 baud without flow control
func DefaultSettings() Settings {
	return Settings{
		BaudRate:    115200,
		FlowControl: false,
	}
}

// Validate checks that the settings can be applied on this platform
func (s Settings) Validate() error {
	if _, err := getBaudRate(s.BaudRate); err != nil {
		return err
	}
	return nil
}

// Option is a functional option for configuring a Port
type Option func(*Port)

// WithLogger sets the logger used for open/close diagnostics
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Port) {
		if log != nil {
			p.log = log
		}
	}
}

// withDevice replaces the terminal-control backend
func withDevice(dev termDevice) Option {
	return func(p *Port) {
		p.dev = dev
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
