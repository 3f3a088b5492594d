//go:build linux
// +build linux

// File: transport/tcp/listener_linux.go
// Author: momentics <momentics@gmail.com>

// Package tcp provides a minimal non-blocking TCP listener/acceptor.

package tcp

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

// Network is the Linux socket capability. The zero value is ready to use.
type Network struct {
	// NoDelay sets TCP_NODELAY on accepted connections.
	NoDelay bool
}

// Listen creates a non-blocking socket bound to host:port and starts listening.
func (n Network) Listen(host string, port, backlog int) (api.Listener, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("tcp: port %d: %w", port, api.ErrInvalidArgument)
	}
	if backlog <= 0 {
		return nil, fmt.Errorf("tcp: backlog %d: %w", backlog, api.ErrInvalidArgument)
	}
	sa, family, err := sockaddr(host, port)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("tcp: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcp: setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcp: bind %s: %w", net.JoinHostPort(host, strconv.Itoa(port)), err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcp: listen: %w", err)
	}

	local, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcp: getsockname: %w", err)
	}
	return &listener{fd: fd, addr: formatSockaddr(local), noDelay: n.NoDelay}, nil
}

type listener struct {
	fd      int
	addr    string
	noDelay bool
	closed  bool
}

// Accept implements api.Listener.
func (l *listener) Accept() (api.Conn, error) {
	if l.closed {
		return nil, api.ErrConnClosed
	}
	for {
		nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			switch {
			case errors.Is(err, unix.EINTR):
				continue
			case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.ECONNABORTED):
				// an aborted handshake leaves nothing to accept this round
				return nil, api.ErrWouldBlock
			}
			return nil, fmt.Errorf("tcp: accept: %w", err)
		}
		if l.noDelay {
			_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		}
		return &conn{fd: nfd, remote: formatSockaddr(sa)}, nil
	}
}

// Close implements api.Listener. Closing twice returns api.ErrConnClosed.
func (l *listener) Close() error {
	if l.closed {
		return api.ErrConnClosed
	}
	l.closed = true
	return unix.Close(l.fd)
}

func (l *listener) RawFD() uintptr { return uintptr(l.fd) }
func (l *listener) Addr() string   { return l.addr }

// sockaddr resolves host to an IPv4 or IPv6 socket address. An empty host
// binds every IPv4 interface.
func sockaddr(host string, port int) (unix.Sockaddr, int, error) {
	if host == "" {
		return &unix.SockaddrInet4{Port: port}, unix.AF_INET, nil
	}
	ip := net.ParseIP(host)
	if ip == nil {
		addr, err := net.ResolveIPAddr("ip", host)
		if err != nil {
			return nil, 0, fmt.Errorf("tcp: resolve %q: %w", host, err)
		}
		ip = addr.IP
	}
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET, nil
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, unix.AF_INET6, nil
}

func formatSockaddr(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	}
	return "unknown"
}
