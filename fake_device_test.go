//go:build linux || darwin

package serial

import (
	"sync"

	"golang.org/x/sys/unix"
)

// fakeNode is one device node of a fakeDevice
type fakeNode struct {
	attr       unix.Termios
	history    []unix.Termios // every configuration applied with SetAttr
	exclusive  bool
	opens      int
	loop       []byte // bytes written come back as input
	writeLimit int    // max bytes accepted per Write, 0 for no limit
}

// fakeDevice is an in-memory termDevice. Writes to a node are looped back
// to its input so a single port can talk to itself.
type fakeDevice struct {
	mu     sync.Mutex
	nodes  map[string]*fakeNode
	fds    map[int]*fakeNode
	nextFD int
	failOn map[string]error
	calls  []string
}

var _ termDevice = (*fakeDevice)(nil)

func cookedTermios() unix.Termios {
	var t unix.Termios
	t.Iflag = unix.ICRNL | unix.IXON | unix.BRKINT
	t.Oflag = unix.OPOST
	t.Cflag = unix.CS7 | unix.PARENB | unix.CLOCAL | unix.CREAD | unix.CSTOPB
	t.Lflag = unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 5
	return t
}

func newFakeDevice(paths ...string) *fakeDevice {
	f := &fakeDevice{
		nodes:  make(map[string]*fakeNode),
		fds:    make(map[int]*fakeNode),
		nextFD: 3,
		failOn: make(map[string]error),
	}
	for _, p := range paths {
		f.nodes[p] = &fakeNode{attr: cookedTermios()}
	}
	return f
}

func (f *fakeDevice) node(path string) *fakeNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[path]
}

func (f *fakeDevice) openFDs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fds)
}

func (f *fakeDevice) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDevice) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeDevice) fail(step string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failOn, step)
		return
	}
	f.failOn[step] = err
}

// enter records the call and returns the injected failure, if any
func (f *fakeDevice) enter(call string) error {
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeDevice) Open(path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("open"); err != nil {
		return -1, err
	}
	n, ok := f.nodes[path]
	if !ok {
		return -1, unix.ENOENT
	}
	if n.exclusive {
		return -1, unix.EBUSY
	}
	fd := f.nextFD
	f.nextFD++
	f.fds[fd] = n
	n.opens++
	return fd, nil
}

func (f *fakeDevice) Exclusive(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("exclusive"); err != nil {
		return err
	}
	f.fds[fd].exclusive = true
	return nil
}

func (f *fakeDevice) Release(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("release"); err != nil {
		return err
	}
	f.fds[fd].exclusive = false
	return nil
}

func (f *fakeDevice) ClearFlags(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("clearflags")
}

func (f *fakeDevice) GetAttr(fd int) (*unix.Termios, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getattr"); err != nil {
		return nil, err
	}
	attr := f.fds[fd].attr
	return &attr, nil
}

func (f *fakeDevice) SetAttr(fd int, attr *unix.Termios) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("setattr"); err != nil {
		return err
	}
	n := f.fds[fd]
	n.attr = *attr
	n.history = append(n.history, *attr)
	return nil
}

func (f *fakeDevice) Drain(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("drain")
}

func (f *fakeDevice) Poll(fd int, events int16) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("poll"); err != nil {
		return false, err
	}
	n := f.fds[fd]
	switch {
	case events&unix.POLLIN != 0:
		return len(n.loop) > 0, nil
	case events&unix.POLLOUT != 0:
		return true, nil
	}
	return false, nil
}

func (f *fakeDevice) Read(fd int, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("read"); err != nil {
		return -1, err
	}
	n := f.fds[fd]
	if len(n.loop) == 0 {
		return 0, nil
	}
	c := copy(buf, n.loop)
	n.loop = n.loop[c:]
	return c, nil
}

func (f *fakeDevice) Write(fd int, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("write"); err != nil {
		return -1, err
	}
	n := f.fds[fd]
	if n.writeLimit > 0 && len(buf) > n.writeLimit {
		buf = buf[:n.writeLimit]
	}
	n.loop = append(n.loop, buf...)
	return len(buf), nil
}

func (f *fakeDevice) Close(fd int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("close"); err != nil {
		return err
	}
	n := f.fds[fd]
	delete(f.fds, fd)
	n.opens--
	if n.opens == 0 {
		n.exclusive = false
	}
	return nil
}
