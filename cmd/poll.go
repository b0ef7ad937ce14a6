/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// errHangup is returned when the port polls readable but yields no data,
// which is how a hung-up line looks through the non-blocking API
var errHangup = errors.New("device hung up")

// pollConn is the part of *serial.Port the command loops drive
type pollConn interface {
	Readable() bool
	Read(buf []byte) (int, error)
	Writable() bool
	Write(buf []byte) (int, error)
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// writeAll keeps writing until all of data is accepted or ctx is done.
// It returns the number of bytes written either way.
func writeAll(ctx context.Context, c pollConn, data []byte, interval time.Duration) (int, error) {
	written := 0
	for written < len(data) {
		if c.Writable() {
			n, err := c.Write(data[written:])
			if err != nil {
				return written, err
			}
			written += n
			if n > 0 {
				continue
			}
		}
		if err := sleepContext(ctx, interval); err != nil {
			return written, err
		}
	}
	return written, nil
}

// readFull reads exactly len(buf) bytes unless ctx is done or the line
// hangs up first
func readFull(ctx context.Context, c pollConn, buf []byte, interval time.Duration) (int, error) {
	got := 0
	for got < len(buf) {
		if c.Readable() {
			n, err := c.Read(buf[got:])
			if err != nil {
				return got, err
			}
			if n == 0 {
				return got, errHangup
			}
			got += n
			continue
		}
		if err := sleepContext(ctx, interval); err != nil {
			return got, err
		}
	}
	return got, nil
}

// copyAvailable moves incoming data to out (and echo, when set) until ctx
// is done or the line hangs up. Cancellation is a clean stop, not an error.
func copyAvailable(ctx context.Context, c pollConn, out, echo io.Writer, buf []byte, interval time.Duration) (int64, error) {
	var total int64
	for ctx.Err() == nil {
		if c.Readable() {
			n, err := c.Read(buf)
			if err != nil {
				return total, fmt.Errorf("read error: %w", err)
			}
			if n == 0 {
				return total, errHangup
			}
			if _, err := out.Write(buf[:n]); err != nil {
				return total, fmt.Errorf("write error: %w", err)
			}
			total += int64(n)
			if echo != nil {
				if _, err := echo.Write(buf[:n]); err != nil {
					log.WithError(err).Debug("console echo failed")
				}
			}
			continue
		}
		if sleepContext(ctx, interval) != nil {
			break
		}
	}
	return total, nil
}
