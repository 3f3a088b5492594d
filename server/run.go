// File: server/run.go
// Package server implements the relay loop: one readiness wait per cycle,
// then readable, writable and exceptional handling in that order.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"io"

	"github.com/momentics/hioload-relay/affinity"
	"github.com/momentics/hioload-relay/api"
)

// Run drives the loop until no connection is left. Cancelling ctx closes the
// listener and every peer, which empties the active set and ends Run with a
// nil error. Only a multiplexer failure is returned as an error.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		return ErrNotBound
	}
	if s.cfg.CPU >= 0 {
		release, err := affinity.Pin(s.cfg.CPU)
		if err != nil {
			return err
		}
		defer release()
	}
	for s.active() > 0 {
		if ctx.Err() != nil {
			s.shutdown()
			break
		}
		if err := s.cycle(); err != nil {
			return err
		}
	}
	return nil
}

// cycle runs one multiplex wait and handles everything it reported.
func (s *Server) cycle() error {
	s.buildInterest()
	if err := s.mux.Wait(s.interest, s.cfg.PollTimeout, &s.ready); err != nil {
		return api.NewError(api.ErrCodeMultiplexer, "multiplexer wait").WithCause(err)
	}

	s.readable = s.resolve(s.ready.Readable, s.readable[:0])
	s.writable = s.resolve(s.ready.Writable, s.writable[:0])
	s.exceptional = s.resolve(s.ready.Exceptional, s.exceptional[:0])

	for _, ep := range s.readable {
		switch ep.kind {
		case endpointListener:
			s.accept()
		case endpointPeer:
			s.read(ep.peer)
		}
	}
	for _, ep := range s.writable {
		if ep.kind == endpointPeer {
			s.write(ep.peer)
		}
	}
	for _, ep := range s.exceptional {
		switch ep.kind {
		case endpointListener:
			s.listenerFailed()
		case endpointPeer:
			s.exceptionalPeer(ep.peer)
		}
	}

	s.publishGauges()
	return nil
}

// buildInterest recomputes the read and write interest sets. Every tracked
// connection is read-interested; only peers with pending output are
// write-interested.
func (s *Server) buildInterest() {
	s.interest.Read = s.interest.Read[:0]
	s.interest.Write = s.interest.Write[:0]
	if s.listener != nil {
		s.interest.Read = append(s.interest.Read, s.listener.RawFD())
	}
	for _, p := range s.order {
		s.interest.Read = append(s.interest.Read, p.fd)
		if _, ok := s.writers[p.fd]; ok {
			s.interest.Write = append(s.interest.Write, p.fd)
		}
	}
}

func (s *Server) resolve(fds []uintptr, dst []endpoint) []endpoint {
	for _, fd := range fds {
		if s.listener != nil && fd == s.listener.RawFD() {
			dst = append(dst, endpoint{kind: endpointListener})
			continue
		}
		if p, ok := s.peers[fd]; ok {
			dst = append(dst, endpoint{kind: endpointPeer, peer: p})
		}
	}
	return dst
}

// accept takes one pending connection off the listener.
func (s *Server) accept() {
	if s.listener == nil {
		return
	}
	c, err := s.listener.Accept()
	switch {
	case err == nil:
	case errors.Is(err, api.ErrWouldBlock):
		return
	default:
		s.obs.Observe(api.Event{Kind: api.EventAcceptFailed, FD: s.listener.RawFD(), Err: err})
		return
	}
	p := newPeer(c)
	s.peers[p.fd] = p
	s.order = append(s.order, p)
	s.obs.Observe(api.Event{Kind: api.EventClientConnected, FD: p.fd, Addr: p.addr})
}

type readOutcome uint8

const (
	readData readOutcome = iota
	readClosed
	readWouldBlock
	readFailed
)

func classifyRead(n int, err error) readOutcome {
	switch {
	case n > 0:
		return readData
	case err == nil, errors.Is(err, io.EOF):
		return readClosed
	case errors.Is(err, api.ErrWouldBlock):
		return readWouldBlock
	}
	return readFailed
}

// read performs one bounded read and treats whatever arrived as one
// broadcast unit.
func (s *Server) read(p *peer) {
	if p.closed {
		return
	}
	n, err := p.conn.Read(s.readBuf)
	switch classifyRead(n, err) {
	case readData:
		payload := make([]byte, n)
		copy(payload, s.readBuf[:n])
		s.obs.Observe(api.Event{Kind: api.EventDataReceived, FD: p.fd, Addr: p.addr, Size: n, Payload: payload})
		s.broadcast(p, payload)
	case readClosed:
		s.obs.Observe(api.Event{Kind: api.EventClientClosing, FD: p.fd, Addr: p.addr})
		s.destroy(p)
	case readWouldBlock:
	case readFailed:
		s.obs.Observe(api.Event{Kind: api.EventReadFailed, FD: p.fd, Addr: p.addr, Err: err})
		s.destroy(p)
	}
}

// write sends the oldest pending chunk. A failed chunk is dropped together
// with the peer; there is no resend.
func (s *Server) write(p *peer) {
	if p.closed {
		return
	}
	chunk, ok := p.next()
	if !ok {
		s.idle(p)
		return
	}
	n, err := p.conn.Write(chunk)
	switch {
	case errors.Is(err, api.ErrWouldBlock):
		return
	case err != nil:
		s.obs.Observe(api.Event{Kind: api.EventSendFailed, FD: p.fd, Addr: p.addr, Pending: p.pending(), Err: err})
		s.destroy(p)
		return
	}
	if !p.advance(n) {
		return
	}
	s.obs.Observe(api.Event{Kind: api.EventSendSucceeded, FD: p.fd, Addr: p.addr, Size: p.headLen, Pending: p.pending()})
	if p.pending() == 0 {
		s.idle(p)
	}
}

// idle drops p from write interest; broadcast re-adds it on new data.
func (s *Server) idle(p *peer) {
	delete(s.writers, p.fd)
	s.obs.Observe(api.Event{Kind: api.EventQueueIdle, FD: p.fd, Addr: p.addr})
}

func (s *Server) exceptionalPeer(p *peer) {
	if p.closed {
		return
	}
	s.obs.Observe(api.Event{Kind: api.EventExceptional, FD: p.fd, Addr: p.addr, Pending: p.pending()})
	s.destroy(p)
}

// listenerFailed closes a listener flagged in error. No new peers can
// arrive afterwards; Run ends once the remaining peers are gone.
func (s *Server) listenerFailed() {
	ln := s.listener
	if ln == nil {
		return
	}
	s.obs.Observe(api.Event{Kind: api.EventExceptional, FD: ln.RawFD(), Addr: ln.Addr()})
	s.closeListener()
}

func (s *Server) closeListener() {
	ln := s.listener
	if ln == nil {
		return
	}
	s.listener = nil
	_ = s.mux.Unregister(ln.RawFD())
	_ = ln.Close()
}

// destroy evicts p from read and write interest, drops its queue and closes
// the connection. It runs at most once per peer.
func (s *Server) destroy(p *peer) {
	if p.closed {
		return
	}
	p.closed = true
	delete(s.peers, p.fd)
	delete(s.writers, p.fd)
	for i, q := range s.order {
		if q == p {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	p.release()
	_ = s.mux.Unregister(p.fd)
	_ = p.conn.Close()
}

// shutdown closes every peer and the listener, emptying the active set.
func (s *Server) shutdown() {
	for len(s.order) > 0 {
		p := s.order[0]
		s.obs.Observe(api.Event{Kind: api.EventClientClosing, FD: p.fd, Addr: p.addr})
		s.destroy(p)
	}
	s.closeListener()
}

func (s *Server) publishGauges() {
	if s.metrics == nil {
		return
	}
	queued := 0
	for _, p := range s.order {
		queued += p.pending()
	}
	s.metrics.Set("peers", len(s.peers))
	s.metrics.Set("write_interest", len(s.writers))
	s.metrics.Set("queued_chunks", queued)
}
