package serial

import "golang.org/x/sys/unix"

const (
	ioctlGetAttr = unix.TCGETS
	ioctlSetAttr = unix.TCSETS
)

// baudRates maps a numeric rate to its termios speed constant
var baudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	speed, ok := baudRates[rate]
	if !ok {
		return 0, ErrInvalidBaudRate
	}
	return speed, nil
}

// setSpeed sets both directions, the equivalent of cfsetspeed(3)
func setSpeed(attr *unix.Termios, rate int) error {
	speed, err := getBaudRate(rate)
	if err != nil {
		return err
	}
	attr.Cflag = (attr.Cflag &^ unix.CBAUD) | speed
	attr.Ispeed = speed
	attr.Ospeed = speed
	return nil
}

// drain blocks until queued output has been sent (tcdrain)
func drain(fd int) error {
	return unix.IoctlSetInt(fd, unix.TCSBRK, 1)
}
