//go:build linux
// +build linux

// File: transport/tcp/conn_linux.go
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

// conn is an accepted non-blocking TCP connection.
type conn struct {
	fd     int
	remote string
	closed bool
}

// Read implements api.Conn.
func (c *conn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, api.ErrConnClosed
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == nil && n == 0 && len(p) > 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		}
		return 0, fmt.Errorf("tcp: read: %w", err)
	}
}

// Write implements api.Conn. MSG_NOSIGNAL keeps a reset peer from raising SIGPIPE.
func (c *conn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, api.ErrConnClosed
	}
	for {
		n, err := unix.SendmsgN(c.fd, p, nil, nil, unix.MSG_NOSIGNAL)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		}
		return 0, fmt.Errorf("tcp: write: %w", err)
	}
}

// Close implements api.Conn. Closing twice returns api.ErrConnClosed.
func (c *conn) Close() error {
	if c.closed {
		return api.ErrConnClosed
	}
	c.closed = true
	return unix.Close(c.fd)
}

func (c *conn) RawFD() uintptr     { return uintptr(c.fd) }
func (c *conn) RemoteAddr() string { return c.remote }
