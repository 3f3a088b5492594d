//go:build unix

// File: reactor/poll_reactor.go
// Author: momentics <momentics@gmail.com>
//
// poll(2) multiplexer. Stateless between waits; the descriptor array is
// rebuilt from the caller's Interest every cycle.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

type pollMux struct {
	fds   []unix.PollFd
	index map[int32]int
}

func newPoll() (api.Multiplexer, error) {
	return &pollMux{index: make(map[int32]int)}, nil
}

// Wait implements api.Multiplexer.
func (m *pollMux) Wait(in api.Interest, timeout time.Duration, out *api.Readiness) error {
	out.Reset()
	m.fds = m.fds[:0]
	clear(m.index)
	add := func(fd uintptr, events int16) {
		key := int32(fd)
		if i, ok := m.index[key]; ok {
			m.fds[i].Events |= events
			return
		}
		m.index[key] = len(m.fds)
		m.fds = append(m.fds, unix.PollFd{Fd: key, Events: events})
	}
	for _, fd := range in.Read {
		add(fd, unix.POLLIN)
	}
	for _, fd := range in.Write {
		add(fd, unix.POLLOUT)
	}

	n, err := unix.Poll(m.fds, timeoutMillis(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return nil
	}

	for _, pfd := range m.fds {
		if pfd.Revents == 0 {
			continue
		}
		fd := uintptr(pfd.Fd)
		if pfd.Revents&unix.POLLIN != 0 && pfd.Events&unix.POLLIN != 0 {
			out.Readable = append(out.Readable, fd)
		}
		if pfd.Revents&unix.POLLOUT != 0 && pfd.Events&unix.POLLOUT != 0 {
			out.Writable = append(out.Writable, fd)
		}
		if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			out.Exceptional = append(out.Exceptional, fd)
		}
	}
	return nil
}

// Unregister implements api.Multiplexer. poll keeps no per-descriptor state.
func (m *pollMux) Unregister(uintptr) error { return nil }

func (m *pollMux) Close() error { return nil }
