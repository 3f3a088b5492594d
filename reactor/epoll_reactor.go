//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Linux epoll implementation.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-relay/api"
)

// epollMux is a level-triggered epoll multiplexer. The kernel interest list is
// reconciled against the caller's Interest on every Wait, so callers can treat
// it like select(2).
type epollMux struct {
	epfd    int
	watched map[int]uint32 // registered fd -> epoll event mask
	want    map[int]uint32 // scratch for the current Wait
	events  []unix.EpollEvent
}

func newEpoll(maxEvents int) (api.Multiplexer, error) {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollMux{
		epfd:    epfd,
		watched: make(map[int]uint32),
		want:    make(map[int]uint32),
		events:  make([]unix.EpollEvent, maxEvents),
	}, nil
}

// Wait implements api.Multiplexer.
func (m *epollMux) Wait(in api.Interest, timeout time.Duration, out *api.Readiness) error {
	out.Reset()
	clear(m.want)
	for _, fd := range in.Read {
		m.want[int(fd)] |= unix.EPOLLIN
	}
	for _, fd := range in.Write {
		m.want[int(fd)] |= unix.EPOLLOUT
	}
	if err := m.sync(); err != nil {
		return err
	}

	n, err := unix.EpollWait(m.epfd, m.events, timeoutMillis(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("epoll wait: %w", err)
	}

	for i := 0; i < n; i++ {
		ev := m.events[i]
		fd := uintptr(ev.Fd)
		want := m.want[int(ev.Fd)]
		if ev.Events&unix.EPOLLIN != 0 && want&unix.EPOLLIN != 0 {
			out.Readable = append(out.Readable, fd)
		}
		if ev.Events&unix.EPOLLOUT != 0 && want&unix.EPOLLOUT != 0 {
			out.Writable = append(out.Writable, fd)
		}
		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			out.Exceptional = append(out.Exceptional, fd)
		}
	}
	return nil
}

// sync brings the kernel interest list in line with m.want.
func (m *epollMux) sync() error {
	for fd := range m.watched {
		if _, ok := m.want[fd]; ok {
			continue
		}
		if err := m.del(fd); err != nil {
			return err
		}
	}
	for fd, mask := range m.want {
		cur, ok := m.watched[fd]
		switch {
		case !ok:
			if err := m.ctl(unix.EPOLL_CTL_ADD, fd, mask); err != nil {
				if !errors.Is(err, unix.EEXIST) {
					return fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
				}
				if err := m.ctl(unix.EPOLL_CTL_MOD, fd, mask); err != nil {
					return fmt.Errorf("epoll ctl mod fd=%d: %w", fd, err)
				}
			}
		case cur != mask:
			if err := m.ctl(unix.EPOLL_CTL_MOD, fd, mask); err != nil {
				if !errors.Is(err, unix.ENOENT) {
					return fmt.Errorf("epoll ctl mod fd=%d: %w", fd, err)
				}
				if err := m.ctl(unix.EPOLL_CTL_ADD, fd, mask); err != nil {
					return fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
				}
			}
		default:
			continue
		}
		m.watched[fd] = mask
	}
	return nil
}

func (m *epollMux) ctl(op, fd int, mask uint32) error {
	ev := unix.EpollEvent{Events: mask, Fd: int32(fd)}
	return unix.EpollCtl(m.epfd, op, fd, &ev)
}

// del removes fd. A descriptor the kernel already dropped (closed) is not an error.
func (m *epollMux) del(fd int) error {
	delete(m.watched, fd)
	err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == nil || errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EBADF) {
		return nil
	}
	return fmt.Errorf("epoll ctl del fd=%d: %w", fd, err)
}

// Unregister implements api.Multiplexer.
func (m *epollMux) Unregister(fd uintptr) error {
	if _, ok := m.watched[int(fd)]; !ok {
		return nil
	}
	return m.del(int(fd))
}

// Close releases the epoll file descriptor.
func (m *epollMux) Close() error {
	return unix.Close(m.epfd)
}
