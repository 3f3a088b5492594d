// File: server/peer.go
// Author: momentics <momentics@gmail.com>

package server

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioload-relay/api"
)

// peer is one connected client and its outbound queue.
type peer struct {
	conn api.Conn
	fd   uintptr
	addr string

	outbound *queue.Queue // []byte chunks, oldest first
	head     []byte       // unsent remainder of the chunk being written
	headLen  int          // full length of that chunk
	closed   bool
}

func newPeer(c api.Conn) *peer {
	return &peer{
		conn:     c,
		fd:       c.RawFD(),
		addr:     c.RemoteAddr(),
		outbound: queue.New(),
	}
}

func (p *peer) enqueue(chunk []byte) {
	p.outbound.Add(chunk)
}

// pending counts chunks not yet fully written, including a partial head.
func (p *peer) pending() int {
	if p.outbound == nil {
		return 0
	}
	n := p.outbound.Length()
	if p.head != nil {
		n++
	}
	return n
}

// next returns the bytes to write now: the partial head if any, otherwise
// the oldest queued chunk.
func (p *peer) next() ([]byte, bool) {
	if p.head == nil && p.outbound != nil && p.outbound.Length() > 0 {
		chunk := p.outbound.Remove().([]byte)
		p.head, p.headLen = chunk, len(chunk)
	}
	return p.head, p.head != nil
}

// advance consumes n written bytes of the head. It reports whether the head
// chunk is now complete.
func (p *peer) advance(n int) bool {
	p.head = p.head[n:]
	if len(p.head) > 0 {
		return false
	}
	p.head = nil
	return true
}

// release drops the outbound queue; the peer is unusable afterwards.
func (p *peer) release() {
	p.outbound = nil
	p.head = nil
	p.headLen = 0
}
