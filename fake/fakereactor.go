// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"time"

	"github.com/momentics/hioload-relay/api"
)

// Multiplexer derives readiness from the state of a fake Network instead of
// the kernel. It never blocks. Scripted readiness, when queued, takes
// precedence over the derived one.
type Multiplexer struct {
	Net *Network

	// WaitErr, when set, is returned by the next Wait.
	WaitErr error

	Waits        int
	Interests    []api.Interest
	Unregistered map[uintptr]int
	Closed       bool

	script []api.Readiness
}

// NewMultiplexer creates a multiplexer over n.
func NewMultiplexer(n *Network) *Multiplexer {
	return &Multiplexer{Net: n, Unregistered: make(map[uintptr]int)}
}

// Script queues a readiness result returned verbatim by a later Wait.
func (m *Multiplexer) Script(r api.Readiness) {
	m.script = append(m.script, r)
}

// LastInterest returns the interest passed to the most recent Wait.
func (m *Multiplexer) LastInterest() api.Interest {
	if len(m.Interests) == 0 {
		return api.Interest{}
	}
	return m.Interests[len(m.Interests)-1]
}

// Wait implements api.Multiplexer.
func (m *Multiplexer) Wait(in api.Interest, _ time.Duration, out *api.Readiness) error {
	m.Waits++
	m.Interests = append(m.Interests, api.Interest{
		Read:  append([]uintptr(nil), in.Read...),
		Write: append([]uintptr(nil), in.Write...),
	})
	out.Reset()
	if err := m.WaitErr; err != nil {
		m.WaitErr = nil
		return err
	}
	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		out.Readable = append(out.Readable, r.Readable...)
		out.Writable = append(out.Writable, r.Writable...)
		out.Exceptional = append(out.Exceptional, r.Exceptional...)
		return nil
	}

	for _, fd := range in.Read {
		ln, c := m.Net.lookup(fd)
		switch {
		case ln != nil:
			if ln.Pending() {
				out.Readable = append(out.Readable, fd)
			}
			ln.net.mu.Lock()
			flagged := ln.exceptional
			ln.net.mu.Unlock()
			if flagged {
				out.Exceptional = append(out.Exceptional, fd)
			}
		case c != nil:
			if c.readable() {
				out.Readable = append(out.Readable, fd)
			}
			if c.flagged() {
				out.Exceptional = append(out.Exceptional, fd)
			}
		}
	}
	for _, fd := range in.Write {
		if _, c := m.Net.lookup(fd); c != nil && c.writable() {
			out.Writable = append(out.Writable, fd)
		}
	}
	return nil
}

// Unregister implements api.Multiplexer.
func (m *Multiplexer) Unregister(fd uintptr) error {
	m.Unregistered[fd]++
	return nil
}

// Close implements api.Multiplexer.
func (m *Multiplexer) Close() error {
	m.Closed = true
	return nil
}
