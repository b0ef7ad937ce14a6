package serial

import "golang.org/x/sys/unix"

const (
	ioctlGetAttr = unix.TIOCGETA
	ioctlSetAttr = unix.TIOCSETA
)

// Darwin stores the numeric rate directly in the speed fields.
func getBaudRate(rate int) (uint64, error) {
	switch rate {
	case 50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800,
		7200, 9600, 14400, 19200, 28800, 38400, 57600, 76800, 115200, 230400:
		return uint64(rate), nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

func setSpeed(attr *unix.Termios, rate int) error {
	speed, err := getBaudRate(rate)
	if err != nil {
		return err
	}
	attr.Ispeed = speed
	attr.Ospeed = speed
	return nil
}

func drain(fd int) error {
	return unix.IoctlSetInt(fd, unix.TIOCDRAIN, 0)
}
