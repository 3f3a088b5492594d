// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the socket capability and
// the readiness multiplexer.

package fake

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/momentics/hioload-relay/api"
)

// Network is an in-memory api.Network. Descriptor numbers are handed out
// sequentially and may be recycled with Reuse to model the kernel reusing
// the lowest free descriptor.
type Network struct {
	mu        sync.Mutex
	nextFD    uintptr
	reuse     []uintptr
	listener  *Listener
	conns     map[uintptr]*Conn
	ListenErr error
}

// NewNetwork creates an empty fake network.
func NewNetwork() *Network {
	return &Network{nextFD: 3, conns: make(map[uintptr]*Conn)}
}

func (n *Network) allocFD() uintptr {
	if len(n.reuse) > 0 {
		fd := n.reuse[0]
		n.reuse = n.reuse[1:]
		return fd
	}
	fd := n.nextFD
	n.nextFD++
	return fd
}

// Reuse makes the next accepted connection get fd.
func (n *Network) Reuse(fd uintptr) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reuse = append(n.reuse, fd)
}

// Listen implements api.Network.
func (n *Network) Listen(host string, port, backlog int) (api.Listener, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ListenErr != nil {
		return nil, n.ListenErr
	}
	if n.listener != nil && !n.listener.closed {
		return nil, fmt.Errorf("fake: address in use")
	}
	n.listener = &Listener{net: n, fd: n.allocFD(), addr: fmt.Sprintf("%s:%d", host, port), backlog: backlog}
	return n.listener, nil
}

// Listener returns the last listener created, or nil.
func (n *Network) Listener() *Listener {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listener
}

// Dial queues a client connection on the listener and returns the
// server-side Conn the relay will accept.
func (n *Network) Dial(addr string) *Conn {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := &Conn{addr: addr}
	n.listener.pending = append(n.listener.pending, c)
	return c
}

func (n *Network) lookup(fd uintptr) (*Listener, *Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listener != nil && !n.listener.closed && n.listener.fd == fd {
		return n.listener, nil
	}
	return nil, n.conns[fd]
}

// Listener is a fake api.Listener.
type Listener struct {
	net         *Network
	fd          uintptr
	addr        string
	backlog     int
	pending     []*Conn
	closed      bool
	closeCount  int
	exceptional bool

	// AcceptErr, when set, is returned by the next Accept instead of a connection.
	AcceptErr error
}

// Accept implements api.Listener.
func (l *Listener) Accept() (api.Conn, error) {
	l.net.mu.Lock()
	defer l.net.mu.Unlock()
	if l.closed {
		return nil, api.ErrConnClosed
	}
	if err := l.AcceptErr; err != nil {
		l.AcceptErr = nil
		return nil, err
	}
	if len(l.pending) == 0 {
		return nil, api.ErrWouldBlock
	}
	c := l.pending[0]
	l.pending = l.pending[1:]
	c.fd = l.net.allocFD()
	l.net.conns[c.fd] = c
	return c, nil
}

// Close implements api.Listener.
func (l *Listener) Close() error {
	l.net.mu.Lock()
	defer l.net.mu.Unlock()
	l.closeCount++
	if l.closed {
		return api.ErrConnClosed
	}
	l.closed = true
	return nil
}

func (l *Listener) RawFD() uintptr { return l.fd }
func (l *Listener) Addr() string   { return l.addr }

// Backlog returns the backlog passed to Listen.
func (l *Listener) Backlog() int { return l.backlog }

// Closes returns how many times Close was called.
func (l *Listener) Closes() int {
	l.net.mu.Lock()
	defer l.net.mu.Unlock()
	return l.closeCount
}

// Pending reports whether a connection is waiting to be accepted.
func (l *Listener) Pending() bool {
	l.net.mu.Lock()
	defer l.net.mu.Unlock()
	return len(l.pending) > 0 || l.AcceptErr != nil
}

// SetExceptional flags the listener as being in an error state.
func (l *Listener) SetExceptional() {
	l.net.mu.Lock()
	defer l.net.mu.Unlock()
	l.exceptional = true
}

// Conn is a fake api.Conn. The test plays the remote client through Send,
// Hangup, Reset and Received.
type Conn struct {
	mu          sync.Mutex
	fd          uintptr
	addr        string
	inbound     [][]byte
	eof         bool
	readErr     error
	writeErr    error
	blocked     bool
	maxWrite    int
	received    bytes.Buffer
	writes      int
	closeCount  int
	exceptional bool
}

// Read implements api.Conn.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closeCount > 0:
		return 0, api.ErrConnClosed
	case c.readErr != nil:
		return 0, c.readErr
	case len(c.inbound) > 0:
		n := copy(p, c.inbound[0])
		if n < len(c.inbound[0]) {
			c.inbound[0] = c.inbound[0][n:]
		} else {
			c.inbound = c.inbound[1:]
		}
		return n, nil
	case c.eof:
		return 0, io.EOF
	}
	return 0, api.ErrWouldBlock
}

// Write implements api.Conn.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closeCount > 0:
		return 0, api.ErrConnClosed
	case c.writeErr != nil:
		return 0, c.writeErr
	case c.blocked:
		return 0, api.ErrWouldBlock
	}
	n := len(p)
	if c.maxWrite > 0 && n > c.maxWrite {
		n = c.maxWrite
	}
	c.received.Write(p[:n])
	c.writes++
	return n, nil
}

// Close implements api.Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCount++
	if c.closeCount > 1 {
		return api.ErrConnClosed
	}
	return nil
}

func (c *Conn) RawFD() uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fd
}

func (c *Conn) RemoteAddr() string { return c.addr }

// Send queues data the relay will read as one chunk.
func (c *Conn) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.inbound = append(c.inbound, cp)
}

// Hangup makes reads return io.EOF once queued data is drained.
func (c *Conn) Hangup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eof = true
}

// Reset makes every later read and write fail with err.
func (c *Conn) Reset(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
	c.writeErr = err
}

// FailWrites makes writes fail with err while reads keep working.
func (c *Conn) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// Block makes writes return api.ErrWouldBlock and the conn not writable.
func (c *Conn) Block(blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocked = blocked
}

// LimitWrites caps how many bytes one Write accepts, 0 removes the cap.
func (c *Conn) LimitWrites(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxWrite = n
}

// SetExceptional flags the connection as being in an error state.
func (c *Conn) SetExceptional() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exceptional = true
}

// Received returns every byte the relay wrote to this connection.
func (c *Conn) Received() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received.String()
}

// Writes returns how many successful Write calls happened.
func (c *Conn) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Closes returns how many times Close was called.
func (c *Conn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

func (c *Conn) readable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount == 0 && (len(c.inbound) > 0 || c.eof || c.readErr != nil)
}

func (c *Conn) writable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount == 0 && !c.blocked
}

func (c *Conn) flagged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount == 0 && c.exceptional
}
