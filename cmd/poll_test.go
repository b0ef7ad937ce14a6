package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopConn echoes writes back as input, optionally accepting only a few
// bytes per call and refusing writes for the first polls
type loopConn struct {
	pending   []byte
	limit     int
	busyPolls int
	writes    int
	readErr   error
	readCalls int
	hungUp    bool
}

func (c *loopConn) Readable() bool { return len(c.pending) > 0 || c.readErr != nil || c.hungUp }

func (c *loopConn) Read(buf []byte) (int, error) {
	c.readCalls++
	if c.readErr != nil {
		return 0, c.readErr
	}
	n := copy(buf, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *loopConn) Writable() bool {
	if c.busyPolls > 0 {
		c.busyPolls--
		return false
	}
	return true
}

func (c *loopConn) Write(buf []byte) (int, error) {
	c.writes++
	if c.limit > 0 && len(buf) > c.limit {
		buf = buf[:c.limit]
	}
	c.pending = append(c.pending, buf...)
	return len(buf), nil
}

func TestWriteAll(t *testing.T) {
	c := &loopConn{limit: 3, busyPolls: 2}

	n, err := writeAll(context.Background(), c, []byte("abcdefgh"), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, 3, c.writes)
	assert.Equal(t, []byte("abcdefgh"), c.pending)
}

func TestWriteAllTimeout(t *testing.T) {
	c := &loopConn{busyPolls: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := writeAll(ctx, c, []byte("x"), time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, n)
}

func TestReadFull(t *testing.T) {
	c := &loopConn{pending: []byte("hello world")}

	buf := make([]byte, 5)
	n, err := readFull(context.Background(), c, buf, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), buf)
	assert.Equal(t, []byte(" world"), c.pending, "reads no further than asked")
}

func TestReadFullTimeout(t *testing.T) {
	c := &loopConn{pending: []byte("ab")}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := readFull(ctx, c, make([]byte, 4), time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, n)
}

func TestReadFullHangup(t *testing.T) {
	c := &loopConn{pending: []byte("ab"), hungUp: true}

	buf := make([]byte, 4)
	n, err := readFull(context.Background(), c, buf, time.Millisecond)
	assert.ErrorIs(t, err, errHangup)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("ab"), buf[:n])
}

func TestRoundTrip(t *testing.T) {
	c := &loopConn{limit: 2}
	pattern := []byte{0x55, 0xAA, 0x00, 0xFF, 0x0D}

	got, err := roundTrip(context.Background(), c, pattern, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, pattern, got)
}

func TestCopyAvailable(t *testing.T) {
	c := &loopConn{pending: []byte("captured data")}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var out, echo bytes.Buffer
	n, err := copyAvailable(ctx, c, &out, &echo, make([]byte, 4), time.Millisecond)
	require.NoError(t, err, "cancellation is a clean stop")
	assert.Equal(t, int64(13), n)
	assert.Equal(t, "captured data", out.String())
	assert.Equal(t, "captured data", echo.String())
}

func TestCopyAvailableReadError(t *testing.T) {
	boom := errors.New("boom")
	c := &loopConn{readErr: boom}

	var out bytes.Buffer
	_, err := copyAvailable(context.Background(), c, &out, nil, make([]byte, 4), time.Millisecond)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.readCalls)
}

func TestCopyAvailableHangup(t *testing.T) {
	c := &loopConn{pending: []byte("last"), hungUp: true}

	var out bytes.Buffer
	n, err := copyAvailable(context.Background(), c, &out, nil, make([]byte, 16), time.Millisecond)
	assert.ErrorIs(t, err, errHangup)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "last", out.String())
	assert.Equal(t, 2, c.readCalls)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestCopyAvailableEchoFailureIsLogged(t *testing.T) {
	hook := logtest.NewLocal(log)
	level := log.GetLevel()
	log.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() { log.SetLevel(level) })

	c := &loopConn{pending: []byte("data")}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	_, err := copyAvailable(ctx, c, &out, failingWriter{}, make([]byte, 16), time.Millisecond)
	require.NoError(t, err, "echo failures do not stop the capture")
	assert.Equal(t, "data", out.String())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "console echo failed", entry.Message)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
